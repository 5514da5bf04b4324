package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	userIDContextKey = "auth_user_id"
	emailContextKey  = "auth_email"
)

// Middleware validates bearer tokens and stores the authenticated user in the
// context. Requests without a valid token are rejected.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		claims, err := s.VerifyToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userIDContextKey, claims.UserID)
		c.Set(emailContextKey, claims.Email)
		c.Next()
	}
}

// OptionalUserID inspects the bearer token without blocking the request. The
// upload endpoint works anonymously; an invalid token only skips persistence.
func (s *Service) OptionalUserID(c *gin.Context) (uint, bool) {
	tokenString := extractBearer(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// UserIDFromContext retrieves the authenticated user id set by Middleware.
func UserIDFromContext(c *gin.Context) (uint, bool) {
	val, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	userID, ok := val.(uint)
	return userID, ok
}

// EmailFromContext retrieves the authenticated email set by Middleware.
func EmailFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(emailContextKey)
	if !ok {
		return "", false
	}
	email, ok := val.(string)
	return email, ok
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
