package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hallpass-backend/internal/escalation"
	"hallpass-backend/internal/mw"
	"hallpass-backend/internal/pass"
	"hallpass-backend/internal/store"
)

// RouterConfig tunes the middleware on the API group.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, passes *pass.Service, monitor *escalation.Monitor, webpushOptions *webpush.Options, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, passes, monitor, webpushOptions)

	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/passes", handler.CreatePass)
		api.GET("/passes/active", handler.GetActivePasses)
		api.GET("/passes/:id", handler.GetPass)
		api.POST("/passes/:id/checkin", handler.CheckInPass)
		api.POST("/passes/:id/return", handler.ReturnPass)

		// Legacy two-state flow
		api.POST("/passes/:id/departure", handler.DeclareDeparture)
		api.POST("/passes/:id/declare-return", handler.DeclareReturn)

		api.GET("/escalations/stats", caching, handler.GetEscalationStats)
		api.POST("/escalations/check", handler.RunEscalationCheck)

		api.GET("/subscriptions", handler.GetSubscriptions)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
