package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/workflow"
)

// Services is everything the route groups hand to their controllers.
type Services struct {
	Cart      *workflow.CartService
	Checkout  *workflow.CheckoutService
	Orders    *workflow.OrderService
	Catalog   *workflow.CatalogService
	Hub       *events.Hub
	JWTSecret string
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, s Services) {
	// Public catalog
	SetupBeerRoutes(r, s)

	// Cart (JWT-protected)
	SetupCartRoutes(r, s)

	// order routes
	SetupOrderRoutes(r, s)

	// Admin routes (JWT + admin role)
	SetupAdminRoutes(r, s)
}
