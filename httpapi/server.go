// Package httpapi implements the API Surface: the interface-only HTTP
// binding described in SPEC_FULL.md §4.F / §6, bound to gin-gonic/gin
// the way the teacher library's yaginmiddleware package expects a
// gin.Context-based Middleware, with X-Service-ID extraction, optional
// per-service rate limiting, and the Prometheus /metrics endpoint from
// core/monitoring.py.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/YaCodeDev/GoCacheService/cachemanager"
	"github.com/YaCodeDev/GoCacheService/healthstate"
	"github.com/YaCodeDev/GoCacheService/metrics"
	"github.com/YaCodeDev/GoCacheService/yacache"
	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/YaCodeDev/GoCacheService/yagzip"
	"github.com/YaCodeDev/GoCacheService/yaginmiddleware"
	"github.com/YaCodeDev/GoCacheService/yahash"
	"github.com/YaCodeDev/GoCacheService/yalogger"
	"github.com/YaCodeDev/GoCacheService/yaratelimit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// gzipMinBytes is the response size above which gzipResponses bothers
// compressing; smaller bodies aren't worth the round-trip.
const gzipMinBytes = 1024

const serviceIDHeader = "X-Service-ID"

// Server binds the Cache Manager to HTTP.
type Server struct {
	engine  *gin.Engine
	manager *cachemanager.Manager
	health  *healthstate.Tracker
	metrics *metrics.Sink
	log     yalogger.Logger

	rateLimit *yaratelimit.RateLimit[yacache.MemoryContainer]
}

// New builds the gin engine and registers every route from
// SPEC_FULL.md §4.F. rateLimitPerMinute of zero disables throttling.
func New(
	manager *cachemanager.Manager,
	health *healthstate.Tracker,
	sink *metrics.Sink,
	log yalogger.Logger,
	rateLimitPerMinute uint8,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{engine: engine, manager: manager, health: health, metrics: sink, log: log}

	if rateLimitPerMinute > 0 {
		s.rateLimit = yaratelimit.NewRateLimit(yacache.NewCache(yacache.NewMemoryContainer()), rateLimitPerMinute, time.Minute)
	}

	var reqCtx yaginmiddleware.Middleware = &requestContextMiddleware{server: s}
	engine.Use(reqCtx.Handle)
	engine.Use(gzipResponses(yagzip.NewGzipWithLevel(yagzip.DefaultCompression), gzipMinBytes))

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(sink.Registry(), promhttp.HandlerOpts{})))
	engine.GET("/stats", s.handleStats)
	engine.POST("/reload", s.handleReload)
	engine.POST("/flush", s.handleFlush)

	engine.GET("/batch/get", s.handleBatchGet)
	engine.POST("/batch/set", s.handleBatchSet)
	engine.POST("/batch/delete", s.handleBatchDelete)

	engine.DELETE("/pattern/:pattern", s.handlePatternDelete)

	engine.GET("/:key", s.handleGet)
	engine.PUT("/:key", s.handleSet)
	engine.DELETE("/:key", s.handleDelete)

	return s
}

// Handler returns the http.Handler to pass to http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestContextMiddleware extracts X-Service-ID, attaches a
// per-request logger, and — when configured — enforces the
// fixed-window rate limit for that service identity. It implements
// yaginmiddleware.Middleware rather than being registered as a bare
// gin.HandlerFunc, so the contract actually gates how it's wired in.
type requestContextMiddleware struct {
	server *Server
}

func (m *requestContextMiddleware) Handle(c *gin.Context) {
	s := m.server

	serviceID := c.GetHeader(serviceIDHeader)
	if serviceID == "" {
		serviceID = "unknown"
	}

	requestID := uuid.NewString()
	reqLog := s.log.WithField("service_id", serviceID).WithField("request_id", requestID)
	c.Set("log", reqLog)
	c.Set("service_id", serviceID)
	c.Set("request_id", requestID)

	if s.rateLimit != nil {
		id := uint64(yahash.FNVStringToInt64(serviceID))

		banned, err := s.rateLimit.Increment(c.Request.Context(), id, "http")
		if err != nil {
			reqLog.Warnf("rate limit check failed: %v", err)
		} else if banned {
			c.JSON(http.StatusTooManyRequests, errorBody("RATE_LIMITED", "request rate limit exceeded", requestID))
			c.Abort()

			return
		}
	}

	c.Next()
}

func loggerFrom(c *gin.Context) yalogger.Logger {
	if log, ok := c.Value("log").(yalogger.Logger); ok {
		return log
	}

	return nil
}

func writeError(c *gin.Context, err yaerrors.Error) {
	requestID, _ := c.Value("request_id").(string)
	c.JSON(err.Code(), errorBody(taxonomyCode(err.Code()), err.Error(), requestID))
}

func taxonomyCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(cachemanager.KeyInvalid)
	case http.StatusForbidden:
		return string(cachemanager.KeyspaceForbidden)
	case http.StatusServiceUnavailable:
		return string(cachemanager.BreakerOpenCode)
	case http.StatusGatewayTimeout:
		return string(cachemanager.CacheTimeout)
	case http.StatusUnprocessableEntity:
		return string(cachemanager.DecodeFail)
	case http.StatusNotFound:
		return string(cachemanager.CacheOperationFail)
	default:
		return string(cachemanager.CacheOperationFail)
	}
}

func withTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}
