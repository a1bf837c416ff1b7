package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course-enrollment-backend/internal/auth"
	"course-enrollment-backend/internal/model"
)

// Context keys set by Authenticate.
const (
	CtxUserID = "userID"
	CtxEmail  = "userEmail"
	CtxRole   = "userRole"
)

// Authenticate validates the bearer token and stores the caller's
// identity in the request context.
func Authenticate(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			msg := "invalid token"
			if err == auth.ErrExpiredToken {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, model.Role(claims.Role))
		c.Next()
	}
}

// RequireRole gates a route group to callers holding the given role.
// Authenticate must run first.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if got.(model.Role) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// Identity pulls the authenticated user out of the context. ok is false
// when Authenticate did not run.
func Identity(c *gin.Context) (userID string, role model.Role, ok bool) {
	id, exists := c.Get(CtxUserID)
	if !exists {
		return "", "", false
	}
	r, exists := c.Get(CtxRole)
	if !exists {
		return "", "", false
	}
	return id.(string), r.(model.Role), true
}
