package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-practice/internal/response"
)

const (
	// ContextKeyClientID is the Gin context key for the anonymous client identity.
	ContextKeyClientID = "client_id"

	HeaderClientID = "X-Client-ID"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ClientID reads the anonymous client identity from the X-Client-ID header or
// the client_id query parameter (browsers cannot set headers on WebSocket
// upgrades). A missing identity is allowed; a malformed one is rejected.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderClientID)
		if id == "" {
			id = c.Query("client_id")
		}

		if id != "" && !clientIDPattern.MatchString(id) {
			response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidClientID)
			return
		}

		c.Set(ContextKeyClientID, id)
		c.Next()
	}
}

// RequireClientID rejects requests without a client identity.
func RequireClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetClientID(c) == "" {
			response.AbortFail(c, http.StatusBadRequest, response.ErrClientIDRequired)
			return
		}
		c.Next()
	}
}

// GetClientID extracts the client identity from the Gin context.
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextKeyClientID)
}
