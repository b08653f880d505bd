package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/idempotency"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/workflow"
)

// -------- Request Structs --------

type PlaceOrderRequest struct {
	Beers []workflow.LineRequest `json:"beers" binding:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// -------- Handlers --------

// POST /orders
func PlaceOrderHandler(svc *workflow.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		order, err := svc.PlaceOrder(c.Request.Context(), middleware.Identity(c), req.Beers, idempotency.Key(c.Request))
		if err != nil {
			respond.Error(c, "place order", err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GET /orders (admin)
func GetAllOrdersHandler(svc *workflow.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListAll(c.Request.Context(), middleware.Identity(c), respond.Page(c))
		if err != nil {
			respond.Error(c, "list orders", err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /orders/myorders
func GetMyOrdersHandler(svc *workflow.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.ListMine(c.Request.Context(), middleware.Identity(c), respond.Page(c))
		if err != nil {
			respond.Error(c, "list user orders", err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /orders/:id
func GetOrderHandler(svc *workflow.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), middleware.Identity(c), c.Param("id"))
		if err != nil {
			respond.Error(c, "get order", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /orders/:id/status
func UpdateOrderStatusHandler(svc *workflow.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		order, err := svc.Advance(c.Request.Context(), middleware.Identity(c), c.Param("id"), req.Status)
		if err != nil {
			respond.Error(c, "update order status", err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// DELETE /orders/:id
func DeleteOrderHandler(svc *workflow.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Cancel(c.Request.Context(), middleware.Identity(c), c.Param("id"))
		if err != nil {
			respond.Error(c, "delete order", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order deleted", "order": order})
	}
}
