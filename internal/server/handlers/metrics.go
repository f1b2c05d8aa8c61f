package handlers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func desc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(name, help, labels, nil)
}

var (
	activeSessionsDesc  = desc("gaze_active_sessions", "Live sessions.")
	uniqueClientsDesc   = desc("gaze_unique_clients_today", "Distinct clients seen today.")
	activeModulesDesc   = desc("gaze_active_modules", "Distinct modules with a live session.")
	activePoliciesDesc  = desc("gaze_active_policies", "Enabled time limit policies.")
	catalogModulesDesc  = desc("gaze_catalog_modules", "Modules in the catalog.")
	catalogCategoryDesc = desc("gaze_catalog_categories", "Categories in the catalog.")
	monitoringDesc      = desc("gaze_monitoring", "1 while the access log feed is read.")
	alertsDesc          = desc("gaze_alerts_total", "Alerts recorded.")
	linesSeenDesc       = desc("gaze_lines_seen_total", "Access log lines delivered by the feed.")
	linesMatchedDesc    = desc("gaze_lines_matched_total", "Access log lines that produced an access event.")
	evaluatePassesDesc  = desc("gaze_evaluate_passes_total", "Evaluator passes run.")
	eventsPublishedDesc = desc("gaze_events_published_total", "Events published to the broker.")
	eventsDroppedDesc   = desc("gaze_events_dropped_total", "Events dropped by a full broker queue.")
	cacheHitsDesc       = desc("gaze_cache_hits_total", "API cache hits.")
	cacheMissesDesc     = desc("gaze_cache_misses_total", "API cache misses.")
	realtimeClientsDesc = desc("gaze_realtime_clients", "Connected live update clients.", "transport")
	uptimeDesc          = desc("gaze_uptime_seconds", "Seconds since the API started.")
)

// monitorCollector reads the monitor state once per scrape.
type monitorCollector struct {
	h *Handlers
}

// Describe implements prometheus.Collector.
func (c monitorCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		activeSessionsDesc, uniqueClientsDesc, activeModulesDesc, activePoliciesDesc,
		catalogModulesDesc, catalogCategoryDesc, monitoringDesc, alertsDesc,
		linesSeenDesc, linesMatchedDesc, evaluatePassesDesc, eventsPublishedDesc,
		eventsDroppedDesc, cacheHitsDesc, cacheMissesDesc, realtimeClientsDesc, uptimeDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c monitorCollector) Collect(ch chan<- prometheus.Metric) {
	h := c.h
	stats := h.engineStats()
	counters := h.gz.Engine().Counters()
	cacheStats := h.cache.GetStats()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v)
	}

	gauge(activeSessionsDesc, float64(stats.ActiveSessions))
	gauge(uniqueClientsDesc, float64(stats.UniqueClients))
	gauge(activeModulesDesc, float64(stats.ActiveModules))
	gauge(activePoliciesDesc, float64(stats.ActivePolicies))
	gauge(catalogModulesDesc, float64(stats.TotalModules))
	gauge(catalogCategoryDesc, float64(stats.TotalCategories))
	gauge(monitoringDesc, boolGauge(h.gz.Monitoring()))
	counter(alertsDesc, float64(counters.Alerts))
	counter(linesSeenDesc, float64(counters.LinesSeen))
	counter(linesMatchedDesc, float64(counters.LinesMatched))
	counter(evaluatePassesDesc, float64(counters.EvaluatePasses))
	counter(eventsPublishedDesc, float64(h.broker.EventsPublished()))
	counter(eventsDroppedDesc, float64(h.broker.EventsDropped()))
	counter(cacheHitsDesc, float64(cacheStats.Hits))
	counter(cacheMissesDesc, float64(cacheStats.Misses))
	gauge(realtimeClientsDesc, float64(h.wsHub.ClientCount()), "websocket")
	gauge(realtimeClientsDesc, float64(h.sseBroadcaster.ClientCount()), "sse")
	gauge(uptimeDesc, time.Since(h.startTime).Seconds())
}

// newRegistry registers the monitor metrics next to the Go runtime and
// process collectors.
func newRegistry(h *Handlers) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		monitorCollector{h: h},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
