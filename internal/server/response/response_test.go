package response

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentstation/gaze/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// TestOK tests the success envelope.
func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]int{"active_sessions": 2})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	resp := decode(t, w)
	if resp.Error != nil {
		t.Errorf("expected no error, got %+v", resp.Error)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok || data["active_sessions"] != float64(2) {
		t.Errorf("unexpected data %v", resp.Data)
	}
}

// TestCreated tests the 201 helper.
func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]string{"module_key": "Chemistry 101"})
	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
}

// TestErrorHelpers tests the status and code of each error helper.
func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad", "") }, http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "missing", "") }, http.StatusNotFound, "NOT_FOUND"},
		{"method", func(w http.ResponseWriter) { MethodNotAllowed(w, "PUT") }, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"conflict", func(w http.ResponseWriter) { Conflict(w, "running", "") }, http.StatusConflict, "CONFLICT"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, stderrors.New("secret")) }, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "catalog down") }, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := decode(t, w)
			if resp.Data != nil {
				t.Errorf("expected null data, got %v", resp.Data)
			}
			if resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("expected code %s, got %+v", tt.code, resp.Error)
			}
		})
	}
}

// TestInternalErrorHidesDetails checks internal errors are not leaked.
func TestInternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, stderrors.New("sqlite: database is locked"))
	resp := decode(t, w)
	if resp.Error.Message != "Internal server error" {
		t.Errorf("unexpected message %q", resp.Error.Message)
	}
}

// TestErrorFromType tests typed error mapping, including wrapped errors.
func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.NewNotFoundError("policy", "Chemistry 101"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("toggle: %w", errors.NewNotFoundError("policy", "x")), http.StatusNotFound},
		{"validation", errors.NewValidationError("limit_minutes", 0, "must be positive"), http.StatusBadRequest},
		{"config", errors.NewConfigError("feed", "no feed source configured", nil), http.StatusBadRequest},
		{"already running", errors.NewResourceError("start", "feed", "", errors.ErrAlreadyRunning), http.StatusConflict},
		{"not running", errors.NewResourceError("start", "feed", "", errors.ErrNotRunning), http.StatusServiceUnavailable},
		{"api 5xx", errors.NewAPIError("catalog", 502, "bad gateway"), http.StatusServiceUnavailable},
		{"api 4xx", errors.NewAPIError("catalog", 401, "unauthorized"), http.StatusBadRequest},
		{"unknown", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

// TestErrorDetails tests error details omitempty behavior.
func TestErrorDetails(t *testing.T) {
	data, err := json.Marshal(Fail("TEST", "message", ""))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var unmarshaled map[string]any
	if err := json.Unmarshal(data, &unmarshaled); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	errorField := unmarshaled["error"].(map[string]any)
	if _, ok := errorField["details"]; ok {
		t.Error("expected 'details' to be omitted when empty")
	}
	if unmarshaled["data"] != nil {
		t.Error("expected 'data' to be null")
	}
}
