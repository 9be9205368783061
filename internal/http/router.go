package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linkreg/internal/core"
	"linkreg/internal/http/middleware"
)

type Options struct {
	BaseURL  string
	Gatherer prometheus.Gatherer // exposed on GET /metrics when set
	Log      *slog.Logger
}

// NewRouter sets up all routes and middleware.
func NewRouter(svc *core.Service, opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	// Treat all upstreams as untrusted.
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("SetTrustedProxies", "error", err)
	}

	r.Use(middleware.Logger(log))
	r.Use(middleware.Recover(log))

	h := NewHandlers(svc, opts.BaseURL, log)

	r.GET("/health", h.Health)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// Optional tiny UI (inline HTML)
	RegisterStatic(r)

	api := r.Group("/api")
	api.POST("/users", h.RegisterUser)
	api.GET("/users/:id", h.GetUser)
	api.GET("/users/:id/links", h.ListLinks)
	api.POST("/users/:id/links", h.CreateLink)
	api.DELETE("/users/:id/links/:code", h.DeleteLink)

	// Redemption
	r.GET("/:code", h.Redirect)

	return r
}
