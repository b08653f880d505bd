package routes

import (
	"github.com/gin-gonic/gin"

	beerControllers "github.com/Dema10/beerproject/controllers/beer"
)

func SetupBeerRoutes(r *gin.Engine, s Services) {
	beers := r.Group("/beers")
	{
		beers.GET("", beerControllers.GetBeers(s.Catalog))
		beers.GET("/:id", beerControllers.GetBeerByID(s.Catalog))
	}
}
