package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/citadelrisk/graphbuilder/internal/connector"
	"github.com/citadelrisk/graphbuilder/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Graph       GraphBuilder
	Runs        RunRepository
	DB          HealthChecker
	Catalog     *connector.Catalog
	Keys        middleware.KeyVerifier // nil disables authentication
	CORSOrigins []string
	Version     string
	Driver      string
}

// Router-level limits.
const (
	maxBodySize = 1 << 20 // 1 MB
	rateLimit   = 20      // requests per second per IP
	rateBurst   = 40      // token bucket burst size
)

func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID())
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  deps.CORSOrigins,
		AllowMethods:  []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization"},
		ExposeHeaders: []string{HeaderAccounts, HeaderLayers, HeaderDepth, HeaderRelationships, middleware.RequestIDHeader},
		MaxAge:        1 * time.Hour,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())
}

func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.DB, deps.Catalog, log, deps.Version, deps.Driver)
	graph := NewGraphHandler(deps.Graph, log)
	stream := NewStreamHandler(ctx, deps.Graph, log, deps.CORSOrigins)
	runs := NewRunHandler(deps.Runs, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	if deps.Keys != nil {
		guard := middleware.NewBruteForceGuard(ctx, middleware.DefaultBruteForceConfig, log)
		api.Use(middleware.BruteForceMiddleware(guard))
		api.Use(middleware.AuthMiddleware(deps.Keys, log, guard))
	}

	api.GET("/connectors", health.Connectors)

	api.GET("/graph-builder/:account", graph.Build)
	api.GET("/graph-builder/:account/stream", stream.Stream)

	if deps.Runs != nil {
		api.GET("/runs", runs.List)
		api.DELETE("/runs", runs.Purge)
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}

// NewMetricsHandler serves Prometheus metrics on a separate listener.
func NewMetricsHandler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
