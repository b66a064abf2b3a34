package domain

import (
	"context"
	"encoding/json"
)

// Upstream API paths
const (
	GenerationsPath = "/v1/images/generations"
	ModelsPath      = "/v1/models"
	HistoryPath     = "/v1/history"
)

// DiagnosticResult is the raw outcome of a connectivity probe
type DiagnosticResult struct {
	Success    bool            `json:"success"`
	Status     int             `json:"status,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// RawResponse is an unparsed upstream reply
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Prober issues raw requests against the upstream API
type Prober interface {
	// Do sends body (JSON encoded when non-nil) to path and returns the reply
	// regardless of its status code
	Do(ctx context.Context, method, path string, body interface{}) (*RawResponse, error)
}
