package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/metrics"
)

// MsgHistoryFailed is shown when the history cannot be loaded
const MsgHistoryFailed = "Failed to load generation history"

// HistoryService reads past generations from a HistorySource
type HistoryService struct {
	source  domain.HistorySource
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewHistoryService creates a history service over source
func NewHistoryService(source domain.HistorySource, collector *metrics.Collector, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		source:  source,
		metrics: collector,
		logger:  logger.With(zap.String("component", "history")),
	}
}

// ListHistory returns every record in source order. An empty listing is a
// success; a failed one carries an empty Data slice and an error message.
func (s *HistoryService) ListHistory(ctx context.Context) domain.HistoryResult {
	records, err := s.source.ListHistory(ctx)
	if err != nil {
		s.logger.Warn("failed to load history", zap.Error(err))
		s.metrics.RecordHistory(false)
		return domain.HistoryResult{Data: []domain.HistoryRecord{}, Error: MsgHistoryFailed}
	}

	if records == nil {
		records = []domain.HistoryRecord{}
	}
	s.metrics.RecordHistory(true)
	return domain.HistoryResult{Success: true, Data: records}
}
