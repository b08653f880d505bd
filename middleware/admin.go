package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin guards the /admin group. It must run after ValidateToken.
func RequireAdmin(c *gin.Context) {
	if !Identity(c).IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin role required"})
		return
	}
	c.Next()
}
