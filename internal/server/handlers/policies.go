package handlers

import (
	"net/http"

	"github.com/agentstation/gaze/internal/server/response"
	"github.com/agentstation/gaze/pkg/policies"
)

// PolicyRequest is the body of POST /api/v1/policies.
type PolicyRequest struct {
	ModuleKey    string `json:"module_key"`
	LimitMinutes int    `json:"limit_minutes"`
}

// HandleListPolicies handles GET /api/v1/policies.
// @Summary Time limit policies
// @Description Every policy in insertion order
// @Tags policies
// @Produce json
// @Success 200 {object} response.Response{data=[]policies.Policy}
// @Router /api/v1/policies [get].
func (h *Handlers) HandleListPolicies(w http.ResponseWriter, _ *http.Request) {
	list := h.gz.Engine().Policies()
	if list == nil {
		list = []policies.Policy{}
	}
	response.OK(w, list)
}

// HandlePutPolicy handles POST /api/v1/policies.
// @Summary Add or replace a policy
// @Description The policy is enabled and takes effect on the next evaluator pass
// @Tags policies
// @Accept json
// @Produce json
// @Param policy body PolicyRequest true "Policy"
// @Success 201 {object} response.Response{data=policies.Policy}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/policies [post].
func (h *Handlers) HandlePutPolicy(w http.ResponseWriter, r *http.Request) {
	var req PolicyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	p, err := h.gz.Engine().PutPolicy(req.ModuleKey, req.LimitMinutes)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.Created(w, p)
}

// HandleEnablePolicy handles POST /api/v1/policies/{key}/enable.
// @Summary Enable a policy
// @Tags policies
// @Produce json
// @Param key path string true "Module key"
// @Success 200 {object} response.Response{data=policies.Policy}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/policies/{key}/enable [post].
func (h *Handlers) HandleEnablePolicy(w http.ResponseWriter, r *http.Request) {
	h.writePolicy(w)(h.gz.Engine().SetPolicyEnabled(r.PathValue("key"), true))
}

// HandleDisablePolicy handles POST /api/v1/policies/{key}/disable.
// @Summary Disable a policy
// @Tags policies
// @Produce json
// @Param key path string true "Module key"
// @Success 200 {object} response.Response{data=policies.Policy}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/policies/{key}/disable [post].
func (h *Handlers) HandleDisablePolicy(w http.ResponseWriter, r *http.Request) {
	h.writePolicy(w)(h.gz.Engine().SetPolicyEnabled(r.PathValue("key"), false))
}

// HandleTogglePolicy handles POST /api/v1/policies/{key}/toggle.
// @Summary Pause or resume a policy
// @Tags policies
// @Produce json
// @Param key path string true "Module key"
// @Success 200 {object} response.Response{data=policies.Policy}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/policies/{key}/toggle [post].
func (h *Handlers) HandleTogglePolicy(w http.ResponseWriter, r *http.Request) {
	h.writePolicy(w)(h.gz.Engine().TogglePolicy(r.PathValue("key")))
}

// HandleDeletePolicy handles DELETE /api/v1/policies/{key}.
// @Summary Remove a policy
// @Tags policies
// @Produce json
// @Param key path string true "Module key"
// @Success 200 {object} response.Response{data=policies.Policy}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/policies/{key} [delete].
func (h *Handlers) HandleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	h.writePolicy(w)(h.gz.Engine().RemovePolicy(r.PathValue("key")))
}

func (h *Handlers) writePolicy(w http.ResponseWriter) func(policies.Policy, error) {
	return func(p policies.Policy, err error) {
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		response.OK(w, p)
	}
}
