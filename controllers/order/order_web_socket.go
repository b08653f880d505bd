package orderControllers

import (
	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/controllers/respond"
	"github.com/Dema10/beerproject/events"
	"github.com/Dema10/beerproject/middleware"
	"github.com/Dema10/beerproject/workflow"
)

// GET /orders/ws streams order events to admin dashboards.
func OrderWebSocketHandler(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := workflow.Authorize(workflow.OpWatchOrders, middleware.Identity(c), ""); err != nil {
			respond.Error(c, "watch orders", err)
			return
		}
		hub.ServeWS(c.Writer, c.Request)
	}
}
