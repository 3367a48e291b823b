package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docqa/pkg/ratelimiter"
)

// AuthMiddleware validates the static bearer token carried in the
// Authorization header. A missing or malformed header yields 401, a wrong
// token yields 403.
func AuthMiddleware(bearerToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header must be of the form 'Bearer <token>'"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(bearerToken)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid bearer token"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitMiddleware rejects requests with 429 once the limiter runs dry.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
