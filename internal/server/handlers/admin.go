package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/agentstation/gaze/internal/server/cache"
	"github.com/agentstation/gaze/internal/server/response"
	"github.com/agentstation/gaze/pkg/engine"
)

// statsTTL keeps repeated stats reads within one engine tick off the engine lock.
const statsTTL = time.Second

// HandleStats handles GET /api/v1/stats.
// @Summary Monitor statistics
// @Description Session, catalog, event and runtime statistics
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.engineStats()
	counters := h.gz.Engine().Counters()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"monitor": stats,
		"feed": map[string]any{
			"monitoring":    h.gz.Monitoring(),
			"lines_seen":    counters.LinesSeen,
			"lines_matched": counters.LinesMatched,
		},
		"evaluator": map[string]any{
			"passes": counters.EvaluatePasses,
		},
		"runtime": map[string]any{
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"goroutines":     runtime.NumGoroutine(),
			"memory_mb":      memStats.Alloc / 1024 / 1024,
			"memory_sys_mb":  memStats.Sys / 1024 / 1024,
		},
		"events": map[string]any{
			"published_total": h.broker.EventsPublished(),
			"dropped_total":   h.broker.EventsDropped(),
			"queue_depth":     h.broker.QueueDepth(),
			"subscribers":     h.broker.SubscriberCount(),
		},
		"realtime": map[string]any{
			"websocket_clients": h.wsHub.ClientCount(),
			"sse_clients":       h.sseBroadcaster.ClientCount(),
		},
		"cache": h.cache.GetStats(),
	})
}

// HandleMetrics handles GET /metrics in the Prometheus text exposition format.
func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

func (h *Handlers) engineStats() engine.Stats {
	key := cache.StatsPrefix + "engine"
	if v, ok := h.cache.Get(key); ok {
		return v.(engine.Stats)
	}
	eng := h.gz.Engine()
	stats := eng.Stats(eng.Now())
	h.cache.SetWithTTL(key, stats, statsTTL)
	return stats
}
