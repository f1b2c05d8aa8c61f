package handlers

import (
	"net/http"

	"github.com/agentstation/gaze/internal/server/response"
)

// HandleListSessions handles GET /api/v1/sessions.
// @Summary Live sessions
// @Description Snapshot of every live session with elapsed time, resolved limit and derived stats
// @Tags sessions
// @Produce json
// @Success 200 {object} response.Response{data=engine.Snapshot}
// @Router /api/v1/sessions [get].
func (h *Handlers) HandleListSessions(w http.ResponseWriter, _ *http.Request) {
	eng := h.gz.Engine()
	response.OK(w, eng.Snapshot(eng.Now()))
}

// HandleGetSession handles GET /api/v1/sessions/{client}.
// @Summary Session by client
// @Tags sessions
// @Produce json
// @Param client path string true "Client address"
// @Success 200 {object} response.Response{data=engine.SessionView}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/sessions/{client} [get].
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	client := r.PathValue("client")
	eng := h.gz.Engine()

	view, ok := eng.Session(client, eng.Now())
	if !ok {
		response.NotFound(w, "Session not found", "No live session for client "+client)
		return
	}
	response.OK(w, view)
}
