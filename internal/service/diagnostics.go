package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/metrics"
)

// Probe names used in logs and metrics
const (
	ProbeConnection = "connection"
	ProbeModels     = "models"
)

// Diagnostics issues raw probes against the upstream for operators. Replies
// are passed through unclassified.
type Diagnostics struct {
	prober  domain.Prober
	timeout time.Duration
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewDiagnostics creates a diagnostics client; every probe is bounded by timeout
func NewDiagnostics(prober domain.Prober, timeout time.Duration, collector *metrics.Collector, logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{
		prober:  prober,
		timeout: timeout,
		metrics: collector,
		logger:  logger.With(zap.String("component", "diagnostics")),
	}
}

// TestConnection posts a minimal generation request
func (d *Diagnostics) TestConnection(ctx context.Context) domain.DiagnosticResult {
	payload := map[string]interface{}{
		"prompt": "test",
		"model":  "img3",
		"size":   string(domain.SizeSquare),
		"n":      1,
	}
	return d.probe(ctx, ProbeConnection, http.MethodPost, domain.GenerationsPath, payload)
}

// TestModelsEndpoint fetches the raw model listing
func (d *Diagnostics) TestModelsEndpoint(ctx context.Context) domain.DiagnosticResult {
	return d.probe(ctx, ProbeModels, http.MethodGet, domain.ModelsPath, nil)
}

func (d *Diagnostics) probe(ctx context.Context, name, method, path string, body interface{}) domain.DiagnosticResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	resp, err := d.prober.Do(ctx, method, path, body)
	result := domain.DiagnosticResult{DurationMS: time.Since(start).Milliseconds()}

	if err != nil {
		result.Error = err.Error()
		d.logger.Warn("probe failed", zap.String("probe", name), zap.Error(err))
		d.metrics.RecordProbe(name, false, 0)
		return result
	}

	result.Status = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode <= 299
	result.Data = rawPayload(resp.Body)

	d.logger.Info("probe completed",
		zap.String("probe", name),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", result.DurationMS),
	)
	d.metrics.RecordProbe(name, result.Success, resp.StatusCode)
	return result
}

// rawPayload keeps a JSON body as-is and wraps anything else as a JSON string
func rawPayload(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		out := make(json.RawMessage, len(body))
		copy(out, body)
		return out
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
