package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/Dema10/beerproject/controllers/order"
	"github.com/Dema10/beerproject/middleware"
)

func SetupOrderRoutes(r *gin.Engine, s Services) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken(s.JWTSecret))
	{
		// Create a new order straight from a beer list
		orders.POST("", orderControllers.PlaceOrderHandler(s.Checkout))

		// Fetch all orders (admin)
		orders.GET("", orderControllers.GetAllOrdersHandler(s.Orders))

		// Fetch the caller's orders
		orders.GET("/myorders", orderControllers.GetMyOrdersHandler(s.Orders))

		// websocket endpoint for real-time order updates (admin)
		orders.GET("/ws", orderControllers.OrderWebSocketHandler(s.Hub))

		orders.GET("/:id", orderControllers.GetOrderHandler(s.Orders))

		// Advance order status (pending -> processing -> shipped -> delivered)
		orders.PATCH("/:id/status", orderControllers.UpdateOrderStatusHandler(s.Orders))

		// Cancel (owner, pending only) or delete (admin) an order
		orders.DELETE("/:id", orderControllers.DeleteOrderHandler(s.Orders))
	}
}
