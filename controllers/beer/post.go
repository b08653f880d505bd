package beerControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/workflow"
)

// POST /admin/beers
func CreateBeer(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.BeerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		beer, err := svc.Create(c.Request.Context(), middleware.Identity(c), input)
		if err != nil {
			respond.Error(c, "create beer", err)
			return
		}
		c.JSON(http.StatusCreated, beer)
	}
}

// PATCH /admin/beers/:id/stock
func UpdateStock(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.StockUpdate
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		beer, err := svc.UpdateStock(c.Request.Context(), middleware.Identity(c), c.Param("id"), input)
		if err != nil {
			respond.Error(c, "update stock", err)
			return
		}
		c.JSON(http.StatusOK, beer)
	}
}
