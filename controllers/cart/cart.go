package cartControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/idempotency"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/workflow"
)

type AddItemInput struct {
	BeerID   string `json:"beerId" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GET /cart
func GetCart(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			respond.Error(c, "get cart", err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// POST /cart/add
func AddItem(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		cart, err := svc.AddItem(c.Request.Context(), middleware.Identity(c), input.BeerID, input.Quantity)
		if err != nil {
			respond.Error(c, "add cart item", err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// PATCH /cart/update/:itemId
func UpdateItem(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		cart, err := svc.UpdateItem(c.Request.Context(), middleware.Identity(c), c.Param("itemId"), input.Quantity)
		if err != nil {
			respond.Error(c, "update cart item", err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /cart/remove/:itemId
func RemoveItem(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.RemoveItem(c.Request.Context(), middleware.Identity(c), c.Param("itemId"))
		if err != nil {
			respond.Error(c, "remove cart item", err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// DELETE /cart
func ClearCart(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Clear(c.Request.Context(), middleware.Identity(c))
		if err != nil {
			respond.Error(c, "clear cart", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "cart": cart})
	}
}

// POST /cart/checkout
func Checkout(svc *workflow.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Checkout(c.Request.Context(), middleware.Identity(c), idempotency.Key(c.Request))
		if err != nil {
			respond.Error(c, "checkout", err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

// GET /admin/carts/:userId
func GetUserCart(svc *workflow.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.GetForUser(c.Request.Context(), middleware.Identity(c), c.Param("userId"))
		if err != nil {
			respond.Error(c, "get user cart", err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
