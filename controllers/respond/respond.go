// Package respond holds the response helpers shared by every controller.
package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Dema10/beerproject/store"
	"github.com/Dema10/beerproject/workflow"
)

// Status maps a workflow error to its HTTP status.
func Status(err error) int {
	switch {
	case errors.Is(err, workflow.ErrValidation),
		errors.Is(err, workflow.ErrInsufficientStock),
		errors.Is(err, workflow.ErrEmptyCart),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"message": ...}. Unexpected errors are logged and
// hidden behind a generic message.
func Error(c *gin.Context, op string, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Default().Error(op+" failed",
			"error", err,
			"request_id", c.GetString("request_id"),
			"path", c.Request.URL.Path,
		)
		c.JSON(status, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

// BadRequest reports a malformed body or parameter.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
}

// Page reads ?page= and ?limit=, falling back to the defaults on junk.
func Page(c *gin.Context) store.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultPageLimit)))
	return store.Page{Page: page, Limit: limit}.Normalize()
}
