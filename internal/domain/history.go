package domain

import (
	"context"
	"time"
)

// HistoryRecord represents a past generation owned by the storage service
type HistoryRecord struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Model     string    `json:"model"`
	Size      string    `json:"size"`
	Count     int       `json:"count"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResult carries the history listing. Data is never nil so an empty
// listing encodes as [].
type HistoryResult struct {
	Success bool            `json:"success"`
	Data    []HistoryRecord `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// HistorySource is any read-only provider of generation records, newest first
type HistorySource interface {
	ListHistory(ctx context.Context) ([]HistoryRecord, error)
}
