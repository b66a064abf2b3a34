package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/config"
	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/metrics"
)

// User-facing failure messages
const (
	MsgAuthFailure    = "Authentication with the image provider failed. Check that your API key is valid and active."
	MsgRateLimited    = "Rate limit exceeded. Please wait a moment before generating more images."
	MsgUnavailable    = "The image generation service is temporarily unavailable. Please try again later."
	MsgGenerateFailed = "Failed to generate images"
)

// OtherModelLabel replaces model names outside the known set in metric labels
const OtherModelLabel = "other"

// GenerationService validates generation requests and forwards them upstream.
// It holds no per-request state and is safe for concurrent use.
type GenerationService struct {
	generator    domain.ImageGenerator
	defaultModel string
	defaultSize  domain.ImageSize
	metrics      *metrics.Collector
	logger       *zap.Logger

	mu    sync.RWMutex
	known map[string]struct{}
}

// NewGenerationService creates a new image generation service
func NewGenerationService(generator domain.ImageGenerator, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GenerationService{
		generator:    generator,
		defaultModel: cfg.DefaultModel,
		defaultSize:  domain.ImageSize(cfg.DefaultImageSize),
		metrics:      collector,
		logger:       logger.With(zap.String("component", "generation")),
	}
	s.RememberModels(nil)
	return s
}

// RememberModels replaces the model ids used as metric labels with the
// built-in set, the configured default and models. Callers pass the latest
// upstream listing.
func (s *GenerationService) RememberModels(models []domain.ModelDescriptor) {
	known := make(map[string]struct{}, len(models)+4)
	for _, m := range domain.DefaultModels() {
		known[m.ID] = struct{}{}
	}
	known[s.defaultModel] = struct{}{}
	for _, m := range models {
		known[m.ID] = struct{}{}
	}

	s.mu.Lock()
	s.known = known
	s.mu.Unlock()
}

// modelLabel bounds the model label cardinality; callers may send any model id
func (s *GenerationService) modelLabel(model string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.known[model]; ok {
		return model
	}
	return OtherModelLabel
}

// Generate submits one request upstream and folds every failure into the
// returned result. Invalid requests never reach the network. No retries are
// made: each upstream call may cost quota.
func (s *GenerationService) Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	req = req.Normalize(s.defaultModel, s.defaultSize)

	if err := req.Validate(); err != nil {
		s.logger.Debug("rejected generation request", zap.Error(err))
		s.metrics.RecordGeneration(s.modelLabel(req.Model), string(domain.KindValidation), 0, 0)
		return domain.GenerationFailed(domain.KindValidation, err.Error())
	}

	start := time.Now()
	images, err := s.generator.Generate(ctx, req)
	elapsed := time.Since(start)

	if err == nil && len(images) == 0 {
		err = domain.ErrNoImages
	}
	if err != nil {
		kind := domain.ClassifyError(err)
		s.logger.Warn("image generation failed",
			zap.String("model", req.Model),
			zap.String("size", string(req.Size)),
			zap.Int("count", req.Count),
			zap.String("kind", string(kind)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		s.metrics.RecordGeneration(s.modelLabel(req.Model), string(kind), 0, elapsed)
		return domain.GenerationFailed(kind, failureMessage(kind, err))
	}

	switch {
	case len(images) > req.Count:
		s.logger.Info("upstream returned more images than requested",
			zap.Int("requested", req.Count),
			zap.Int("returned", len(images)),
		)
		images = images[:req.Count]
	case len(images) < req.Count:
		s.logger.Info("partial generation accepted",
			zap.Int("requested", req.Count),
			zap.Int("returned", len(images)),
		)
	}

	s.logger.Info("images generated",
		zap.String("model", req.Model),
		zap.String("size", string(req.Size)),
		zap.Int("images", len(images)),
		zap.Duration("duration", elapsed),
	)
	s.metrics.RecordGeneration(s.modelLabel(req.Model), "success", len(images), elapsed)

	return domain.GenerationSucceeded(images)
}

// failureMessage maps a classified upstream failure to the text shown to users
func failureMessage(kind domain.ErrorKind, err error) string {
	switch kind {
	case domain.KindAuth:
		return MsgAuthFailure
	case domain.KindRateLimit:
		return MsgRateLimited
	case domain.KindUpstreamUnavailable:
		// Only a real 5xx reply is reported as an outage; transport errors and
		// timeouts get the generic message.
		var upErr *domain.UpstreamError
		if errors.As(err, &upErr) {
			return MsgUnavailable
		}
		return MsgGenerateFailed
	default:
		if errors.Is(err, domain.ErrNoImages) {
			return MsgGenerateFailed + ": " + domain.ErrNoImages.Error()
		}
		return MsgGenerateFailed
	}
}
