package beerControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/workflow"
)

// GetBeers lists beers in production, paginated with ?page= and ?limit=.
func GetBeers(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.List(c.Request.Context(), respond.Page(c))
		if err != nil {
			respond.Error(c, "list beers", err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetBeerByID returns one beer.
// URL param: /beers/:id
func GetBeerByID(svc *workflow.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		beer, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respond.Error(c, "get beer", err)
			return
		}
		c.JSON(http.StatusOK, beer)
	}
}
