package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxKeyUserID = "user_id"

// RequireAuth verifies the bearer access token and stores the resolved user
// ID on the request context. Requests without a valid token get 401.
func (h *Handler) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	userID, err := h.users.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.Set(ctxKeyUserID, userID)
	c.Next()
}
