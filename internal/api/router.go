// Package api exposes the editor over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"rh-editor/internal/editor"
	"rh-editor/internal/mw"
)

type RouterOptions struct {
	RateLimit float64
	Burst     int
	// History serves the write journal; nil disables the history route.
	History History
}

// NewRouter creates and configures the gin engine.
func NewRouter(svc *editor.Service, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	h := NewHandler(svc, opts.History)

	// registry answers never change while the process runs
	caching := mw.Cache(cache.New(time.Minute, 5*time.Minute), time.Minute)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(opts.RateLimit), opts.Burst))
	{
		api.GET("/groups", caching, h.GetGroups)
		api.GET("/equips", h.ListEquipment)
		api.GET("/equips/:name", h.GetEquipment)
		api.GET("/equips/:name/hours", h.ReadHours)
		api.PUT("/equips/:name/hours", h.WriteHours)
		api.GET("/equips/:name/history", h.GetHistory)
	}
	return r
}
