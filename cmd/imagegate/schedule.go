package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
)

// modelsProber is the slice of the diagnostics client the schedule uses
type modelsProber interface {
	TestModelsEndpoint(ctx context.Context) domain.DiagnosticResult
}

// runProbeSchedule probes the models endpoint on schedule until ctx is done.
// The generation probe is never scheduled because each call may cost quota.
func runProbeSchedule(ctx context.Context, schedule string, prober modelsProber, logger *zap.Logger) error {
	logger = logger.With(zap.String("component", "cron"))

	// Create a new cron scheduler
	c := cron.New(cron.WithSeconds())

	var cronMutex sync.Mutex

	_, err := c.AddFunc(schedule, func() {
		cronMutex.Lock()
		defer cronMutex.Unlock()
		if ctx.Err() != nil {
			return
		}

		result := prober.TestModelsEndpoint(ctx)
		if result.Success {
			logger.Info("scheduled models probe succeeded",
				zap.Int("status", result.Status),
				zap.Int64("duration_ms", result.DurationMS),
			)
			return
		}
		logger.Warn("scheduled models probe failed",
			zap.Int("status", result.Status),
			zap.String("error", result.Error),
			zap.Int64("duration_ms", result.DurationMS),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid PROBE_SCHEDULE %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("cron scheduler started", zap.String("schedule", schedule))

	// Keep the scheduler running until context is cancelled
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("cron scheduler stopped")
	return nil
}
