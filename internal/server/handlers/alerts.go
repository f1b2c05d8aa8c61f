package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/gaze/internal/server/response"
	"github.com/agentstation/gaze/pkg/alerts"
	"github.com/agentstation/gaze/pkg/constants"
)

// HandleListAlerts handles GET /api/v1/alerts.
// @Summary Recorded alerts
// @Description Most recent alerts, oldest first. limit=0 returns the whole log.
// @Tags alerts
// @Produce json
// @Param limit query int false "Number of recent alerts" default(3)
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/alerts [get].
func (h *Handlers) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := constants.RecentAlerts
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(w, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	eng := h.gz.Engine()
	var list []alerts.Alert
	if limit == 0 {
		list = eng.Alerts()
	} else {
		list = eng.RecentAlerts(limit)
	}
	if list == nil {
		list = []alerts.Alert{}
	}

	response.OK(w, map[string]any{
		"alerts": list,
		"count":  len(list),
		"total":  eng.Counters().Alerts,
	})
}
