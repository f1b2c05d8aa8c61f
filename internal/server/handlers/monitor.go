package handlers

import (
	"net/http"

	"github.com/agentstation/gaze/internal/server/response"
)

// MonitorRequest is the body of POST /api/v1/monitor.
type MonitorRequest struct {
	Action string `json:"action"`
}

// MonitorStatus reports whether the access log feed is being read.
type MonitorStatus struct {
	Running    bool `json:"running"`
	Monitoring bool `json:"monitoring"`
}

// HandleMonitorStatus handles GET /api/v1/monitor.
// @Summary Monitoring status
// @Tags monitor
// @Produce json
// @Success 200 {object} response.Response{data=MonitorStatus}
// @Router /api/v1/monitor [get].
func (h *Handlers) HandleMonitorStatus(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, h.status())
}

// HandleMonitorAction handles POST /api/v1/monitor.
// @Summary Start or stop monitoring
// @Description Turns the access log feed on or off. Timers keep running either way.
// @Tags monitor
// @Accept json
// @Produce json
// @Param action body MonitorRequest true "start or stop"
// @Success 200 {object} response.Response{data=MonitorStatus}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/monitor [post].
func (h *Handlers) HandleMonitorAction(w http.ResponseWriter, r *http.Request) {
	var req MonitorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	var err error
	switch req.Action {
	case "start":
		err = h.gz.StartMonitoring()
	case "stop":
		err = h.gz.StopMonitoring()
	default:
		response.BadRequest(w, "Invalid action", `action must be "start" or "stop"`)
		return
	}
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.logger.Info().Str("action", req.Action).Msg("Monitoring changed")
	response.OK(w, h.status())
}

func (h *Handlers) status() MonitorStatus {
	return MonitorStatus{
		Running:    h.gz.Running(),
		Monitoring: h.gz.Monitoring(),
	}
}
