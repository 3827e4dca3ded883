package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chatharvard/chatharvard-go/internal/advisor"
	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/rag"
	"github.com/chatharvard/chatharvard-go/internal/ratelimit"
	"github.com/chatharvard/chatharvard-go/internal/snapshot"
	"github.com/chatharvard/chatharvard-go/internal/warmup"
)

// server bundles what the HTTP handlers need.
type server struct {
	cfg       *config.Config
	engine    *advisor.Engine
	provider  *rag.Provider
	manager   *snapshot.Manager // nil when R2 is not configured
	readiness *warmup.ReadinessState
	limiter   *ratelimit.PerKeyLimiter
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	log       *logger.Logger
}

func (s *server) setupRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)
	router.HEAD("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	router.HEAD("/readyz", s.handleReady)

	api := router.Group("/api")
	{
		api.POST("/chat/context", s.sessionRateLimit(), s.handleChatContext)
		api.GET("/courses/:code", s.handleGetCourse)
		api.GET("/courses/:code/similar", s.handleSimilarCourses)
		api.POST("/admin/refresh", s.requireAdminToken(), s.handleRefresh)
	}

	metricsHandler := gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	if s.cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			s.cfg.MetricsUsername: s.cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}

// handleHealth is the liveness probe: process up, nothing else.
func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleReady reports whether the catalog index is serving. Until the
// first index build (or the readiness timeout) the instance stays out
// of rotation.
func (s *server) handleReady(c *gin.Context) {
	status := s.readiness.Status()
	if !status.Ready {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	body := gin.H{
		"status":        "ready",
		"index_built":   s.readiness.IndexBuilt(),
		"catalog_ready": s.provider.Ready(),
	}
	if idx, err := s.provider.Current(); err == nil {
		body["courses"] = idx.Store.Len()
		body["built_at"] = idx.Store.BuiltAt()
	}
	if s.manager != nil {
		body["snapshot_etag"] = s.manager.CurrentETag()
	}
	c.JSON(http.StatusOK, body)
}
