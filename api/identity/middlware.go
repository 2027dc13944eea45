package identity

import (
	"net/http"
	"strings"

	"github.com/beka-birhanu/vinom-caves/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextSessionClaims is the key used to store token claims in the Gin context.
	ContextSessionClaims = "sessionClaims"

	// ClaimSessionID names the claim holding the world session a token controls.
	ClaimSessionID = "session_id"
)

// Authoriz rejects requests without a valid bearer token and stores the token's claims.
func Authoriz(ts i.Tokenizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Retrieve the access token from the Authorization header.
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Status(http.StatusUnauthorized) // No token found in the header.
			c.Abort()
			return
		}

		// Split the "Bearer" prefix from the token.
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Status(http.StatusUnauthorized) // Malformed Authorization header.
			c.Abort()
			return
		}

		claims, err := ts.Decode(parts[1])
		if err != nil {
			c.Status(http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextSessionClaims, claims)
		c.Next()
	}
}

// SessionID returns the session the request's token controls.
func SessionID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ContextSessionClaims)
	if !ok {
		return uuid.Nil, false
	}

	claims, ok := raw.(map[string]interface{})
	if !ok {
		return uuid.Nil, false
	}

	value, ok := claims[ClaimSessionID].(string)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireSession aborts with 403 unless the token controls the session named by param.
func RequireSession(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		owned, ok := SessionID(c)
		requested, err := uuid.Parse(c.Param(param))
		if !ok || err != nil || owned != requested {
			c.JSON(http.StatusForbidden, gin.H{"error": "token does not control this world"})
			c.Abort()
			return
		}
		c.Next()
	}
}
