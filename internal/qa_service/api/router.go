package api

import (
	"github.com/gin-gonic/gin"

	"docqa/internal/config"
	"docqa/pkg/ratelimiter"
)

// SetupRouter configures and returns a Gin engine.
func SetupRouter(h *Handler, cfg *config.AppConfig) *gin.Engine {
	r := gin.Default()

	r.GET("/health", h.Health)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(AuthMiddleware(cfg.Auth.BearerToken))

	if cfg.Middleware.RateLimiter.Enabled {
		tb := ratelimiter.NewTokenBucket(
			cfg.Middleware.RateLimiter.TokenBucket.Rate,
			cfg.Middleware.RateLimiter.TokenBucket.Capacity,
		)
		apiV1.Use(RateLimitMiddleware(tb))
	}

	qa := apiV1.Group("/qa")
	{
		qa.POST("/run", h.Run)
	}

	return r
}
