package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/YaCodeDev/GoCacheService/cachemanager"
	"github.com/YaCodeDev/GoCacheService/codec"
	"github.com/YaCodeDev/GoCacheService/yaflags"
	"github.com/gin-gonic/gin"
)

// Bit positions packed into handleHealthz's unhealthy_flags field.
const (
	componentTransport uint8 = 0
	componentBreaker    uint8 = 1
)

func serviceIDOf(c *gin.Context) string {
	serviceID, _ := c.Value("service_id").(string)

	return serviceID
}

// boolQuery reads a boolean query parameter, defaulting to def when
// absent or unparseable. Used for the use_local/update_local/
// delete_local overrides from SPEC_FULL.md §4.E, which all default to
// true.
func boolQuery(c *gin.Context, name string, def bool) bool {
	raw := c.Query(name)
	if raw == "" {
		return def
	}

	return raw != "false" && raw != "0"
}

// handleGet implements GET /{key}, per SPEC_FULL.md §4.F.
func (s *Server) handleGet(c *gin.Context) {
	key := c.Param("key")

	ctx, cancel := withTimeout(c)
	defer cancel()

	var value any

	useLocal := boolQuery(c, "use_local", true)

	if err := s.manager.Get(ctx, key, serviceIDOf(c), useLocal, &value); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, respond(StatusHit, value, map[string]any{
		"key":     key,
		"service": serviceIDOf(c),
	}))
}

type setRequest struct {
	Value      any `json:"value"`
	TTLSeconds int `json:"ttl_seconds"`
}

// handleSet implements PUT /{key}.
func (s *Server) handleSet(c *gin.Context) {
	key := c.Param("key")

	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(string(cachemanager.KeyInvalid), "malformed request body: "+err.Error(), requestIDOf(c)))

		return
	}

	if req.TTLSeconds < 0 {
		c.JSON(http.StatusBadRequest, errorBody(string(cachemanager.KeyInvalid), "ttl_seconds must not be negative", requestIDOf(c)))

		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	updateLocal := boolQuery(c, "update_local", true)

	if err := s.manager.Set(ctx, key, req.Value, time.Duration(req.TTLSeconds)*time.Second, serviceIDOf(c), updateLocal); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, respond(StatusSuccess, true, map[string]any{
		"key":     key,
		"service": serviceIDOf(c),
		"ttl":     req.TTLSeconds,
	}))
}

// handleDelete implements DELETE /{key}.
func (s *Server) handleDelete(c *gin.Context) {
	key := c.Param("key")

	ctx, cancel := withTimeout(c)
	defer cancel()

	deleteLocal := boolQuery(c, "delete_local", true)

	if err := s.manager.Delete(ctx, key, serviceIDOf(c), deleteLocal); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, respond(StatusDeleted, true, map[string]any{"key": key}))
}

// handleBatchGet implements GET /batch/get?keys=a,b,c.
func (s *Server) handleBatchGet(c *gin.Context) {
	raw := c.Query("keys")
	if raw == "" {
		c.JSON(http.StatusBadRequest, errorBody(string(cachemanager.KeyInvalid), "keys query parameter is required", requestIDOf(c)))

		return
	}

	keys := strings.Split(raw, ",")

	ctx, cancel := withTimeout(c)
	defer cancel()

	useLocal := boolQuery(c, "use_local", true)

	fetched, result, err := s.manager.BatchGet(ctx, keys, serviceIDOf(c), useLocal)
	if err != nil {
		writeError(c, err)

		return
	}

	values := make(map[string]any, len(fetched))

	for key, encoded := range fetched {
		var decoded any
		if derr := codec.As(codec.Decode(encoded), &decoded); derr == nil {
			values[key] = decoded
		}
	}

	status := StatusSuccess
	if len(result.Failed) > 0 {
		status = string(cachemanager.BatchPartial)
	}

	c.JSON(http.StatusOK, respond(status, values, batchMetadata(result)))
}

type batchSetRequest struct {
	Values     map[string]any `json:"values"`
	TTLSeconds int            `json:"ttl_seconds"`
}

// handleBatchSet implements POST /batch/set.
func (s *Server) handleBatchSet(c *gin.Context) {
	var req batchSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(string(cachemanager.KeyInvalid), "malformed request body: "+err.Error(), requestIDOf(c)))

		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	updateLocal := boolQuery(c, "update_local", true)

	result, err := s.manager.BatchSet(ctx, req.Values, time.Duration(req.TTLSeconds)*time.Second, serviceIDOf(c), updateLocal)
	if err != nil {
		writeError(c, err)

		return
	}

	status := StatusSuccess
	if len(result.Failed) > 0 {
		status = string(cachemanager.BatchPartial)
	}

	c.JSON(http.StatusOK, respond(status, result.Succeeded, batchMetadata(result)))
}

type batchDeleteRequest struct {
	Keys []string `json:"keys"`
}

// handleBatchDelete implements POST /batch/delete.
func (s *Server) handleBatchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(string(cachemanager.KeyInvalid), "malformed request body: "+err.Error(), requestIDOf(c)))

		return
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	deleted := make([]string, 0, len(req.Keys))
	failed := make(map[string]string)

	deleteLocal := boolQuery(c, "delete_local", true)
	service := serviceIDOf(c)

	for _, key := range req.Keys {
		if err := s.manager.Delete(ctx, key, service, deleteLocal); err != nil {
			failed[key] = err.Error()

			continue
		}

		deleted = append(deleted, key)
	}

	status := StatusSuccess
	if len(failed) > 0 {
		status = string(cachemanager.BatchPartial)
	}

	c.JSON(http.StatusOK, respond(status, deleted, map[string]any{
		"requested": len(req.Keys),
		"succeeded": len(deleted),
		"failed":    failed,
	}))
}

// handlePatternDelete implements DELETE /pattern/{pattern}, bound to
// cachemanager.Manager.DeleteByPattern (scan_keys + delete_many per
// spec.md §4.E).
func (s *Server) handlePatternDelete(c *gin.Context) {
	pattern := c.Param("pattern")

	ctx, cancel := withTimeout(c)
	defer cancel()

	count, err := s.manager.DeleteByPattern(ctx, pattern)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, respond(StatusDeleted, count, map[string]any{"pattern": pattern}))
}

// handleFlush implements POST /flush.
func (s *Server) handleFlush(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := s.manager.Flush(ctx); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, respond(StatusSuccess, true, nil))
}

// handleStats implements GET /stats.
func (s *Server) handleStats(c *gin.Context) {
	stats := s.manager.Stats()

	c.JSON(http.StatusOK, respond(StatusSuccess, stats, nil))
}

// handleReload implements POST /reload: it re-checks transport
// connectivity and reports the result to the health tracker, the
// closest analogue available to redis_client.py's connection-pool
// reinitialisation now that pool settings are immutable after Load.
func (s *Server) handleReload(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := s.manager.Ping(ctx); err != nil {
		_ = s.health.ReportFailure(ctx, "reload ping failed: "+err.Error())
		writeError(c, err)

		return
	}

	_ = s.health.ReportSuccess(ctx)

	c.JSON(http.StatusOK, respond(StatusSuccess, true, nil))
}

// handleHealthz implements GET /healthz, aggregating near-cache,
// transport, and breaker health the way original_source's health_check
// aggregates redis_client/local_cache/circuit_breaker booleans.
func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := withTimeout(c)
	defer cancel()

	pingErr := s.manager.Ping(ctx)
	breakerHealthy := s.health.IsHealthy(ctx)

	healthy := pingErr == nil && breakerHealthy

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	var unhealthyBits []uint8
	if pingErr != nil {
		unhealthyBits = append(unhealthyBits, componentTransport)
	}

	if !breakerHealthy {
		unhealthyBits = append(unhealthyBits, componentBreaker)
	}

	flags, _ := yaflags.PackBitIndexes[uint8](unhealthyBits)

	body := gin.H{
		"status": status,
		"components": gin.H{
			"transport":  pingErr == nil,
			"near_cache": true,
			"breaker":    breakerHealthy,
		},
		"unhealthy_flags": flags,
		"stats":           s.manager.Stats(),
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, body)
}

func requestIDOf(c *gin.Context) string {
	requestID, _ := c.Value("request_id").(string)

	return requestID
}

func batchMetadata(result *cachemanager.BatchResult) map[string]any {
	failed := make(map[string]string, len(result.Failed))
	for key, err := range result.Failed {
		failed[key] = err.Error()
	}

	return map[string]any{
		"succeeded": len(result.Succeeded),
		"failed":    failed,
	}
}
