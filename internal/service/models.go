package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/metrics"
)

// FallbackPolicy lists models and always yields a usable set
type FallbackPolicy func(ctx context.Context) (domain.ModelsResult, error)

// WithFallback wraps a model listing so that a failed or empty listing is
// replaced by defaults. The result is always a success; the returned error is
// the failure that triggered the fallback, for logging only.
func WithFallback(lister domain.ModelLister, defaults []domain.ModelDescriptor) FallbackPolicy {
	return func(ctx context.Context) (domain.ModelsResult, error) {
		models, err := lister.ListModels(ctx)
		if err != nil {
			return fallbackResult(defaults, domain.FallbackReasonError), err
		}

		models = uniqueModels(models)
		if len(models) == 0 {
			return fallbackResult(defaults, domain.FallbackReasonEmpty), nil
		}

		return domain.ModelsResult{
			Success: true,
			Models:  models,
			Source:  domain.ModelSourceUpstream,
		}, nil
	}
}

func fallbackResult(defaults []domain.ModelDescriptor, reason string) domain.ModelsResult {
	models := make([]domain.ModelDescriptor, len(defaults))
	copy(models, defaults)
	return domain.ModelsResult{
		Success:        true,
		Models:         models,
		Source:         domain.ModelSourceFallback,
		FallbackReason: reason,
	}
}

// uniqueModels drops entries without an id and repeated ids, keeping the first
// occurrence and upstream order
func uniqueModels(models []domain.ModelDescriptor) []domain.ModelDescriptor {
	seen := make(map[string]struct{}, len(models))
	out := make([]domain.ModelDescriptor, 0, len(models))
	for _, m := range models {
		if m.ID == "" {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// ModelRegistry serves the model list with the fallback policy applied
type ModelRegistry struct {
	list    FallbackPolicy
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewModelRegistry creates a registry over lister with the built-in defaults
func NewModelRegistry(lister domain.ModelLister, collector *metrics.Collector, logger *zap.Logger) *ModelRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelRegistry{
		list:    WithFallback(lister, domain.DefaultModels()),
		metrics: collector,
		logger:  logger.With(zap.String("component", "models")),
	}
}

// ListModels returns the upstream models, or the built-in set
func (r *ModelRegistry) ListModels(ctx context.Context) domain.ModelsResult {
	result, err := r.list(ctx)
	if result.Source == domain.ModelSourceFallback {
		r.logger.Warn("using built-in models",
			zap.String("reason", result.FallbackReason),
			zap.Error(err),
		)
		r.metrics.RecordModelFallback(result.FallbackReason)
	}
	return result
}
