package routes

import (
	"github.com/gin-gonic/gin"

	beerControllers "github.com/Dema10/beerproject/controllers/beer"
	cartControllers "github.com/Dema10/beerproject/controllers/cart"
	"github.com/Dema10/beerproject/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires an admin token.
func SetupAdminRoutes(r *gin.Engine, s Services) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateToken(s.JWTSecret), middleware.RequireAdmin)
	{
		// ─────────── Carts ───────────
		adminGroup.GET("/carts/:userId", cartControllers.GetUserCart(s.Cart))

		// ─────────── Beer Management ───────────
		beerAdmin := adminGroup.Group("/beers")
		{
			beerAdmin.POST("", beerControllers.CreateBeer(s.Catalog))
			beerAdmin.PATCH("/:id/stock", beerControllers.UpdateStock(s.Catalog))
		}

		// ─────────── Inventory Sheets ───────────
		inventory := adminGroup.Group("/inventory")
		{
			inventory.GET("/export", beerControllers.ExportInventory(s.Catalog))
			inventory.POST("/import", beerControllers.ImportInventory(s.Catalog))
		}
	}
}
