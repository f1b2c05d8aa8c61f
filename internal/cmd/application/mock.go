// Package application provides test doubles for the command application
// container.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/gaze"
	app "github.com/agentstation/gaze/cmd/application"
)

var _ app.Application = (*Mock)(nil)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    APIURLFunc: func() string { return ts.URL + "/api/v1" },
//	    OutputFormatFunc: func() string { return "json" },
//	}
//	cmd := sessions.NewCommand(mock)
//	// ... test command
type Mock struct {
	GazeFunc         func() (gaze.Client, error)
	LoggerFunc       func() *zerolog.Logger
	APIURLFunc       func() string
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
}

// Gaze returns a client using the mock function or nil.
func (m *Mock) Gaze() (gaze.Client, error) {
	if m.GazeFunc != nil {
		return m.GazeFunc()
	}
	return nil, nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// APIURL returns the server URL using the mock function or the local default.
func (m *Mock) APIURL() string {
	if m.APIURLFunc != nil {
		return m.APIURLFunc()
	}
	return "http://localhost:8080/api/v1"
}

// OutputFormat returns the output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns the version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns the commit using the mock function or "none".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "none"
}

// Date returns the build date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}
