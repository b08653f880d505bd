package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/Dema10/beerproject/controllers/cart"
	"github.com/Dema10/beerproject/middleware"
)

// SetupCartRoutes registers all "/cart/*" endpoints. Requires JWT middleware.
func SetupCartRoutes(r *gin.Engine, s Services) {
	cart := r.Group("/cart")
	cart.Use(middleware.ValidateToken(s.JWTSecret))
	{
		cart.GET("", cartControllers.GetCart(s.Cart))                      // GET /cart
		cart.POST("/add", cartControllers.AddItem(s.Cart))                 // POST /cart/add
		cart.PATCH("/update/:itemId", cartControllers.UpdateItem(s.Cart))  // PATCH /cart/update/:itemId
		cart.DELETE("/remove/:itemId", cartControllers.RemoveItem(s.Cart)) // DELETE /cart/remove/:itemId
		cart.DELETE("", cartControllers.ClearCart(s.Cart))                 // DELETE /cart
		cart.POST("/checkout", cartControllers.Checkout(s.Checkout))       // POST /cart/checkout
	}
}
