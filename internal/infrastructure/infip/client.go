package infip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
)

// maxBodySize caps how much of an upstream reply is read
const maxBodySize = 4 << 20

// maxErrorBody caps the body kept on an UpstreamError
const maxErrorBody = 2048

// Client represents the Infip image API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// Ensure Client satisfies the upstream ports at compile time.
var (
	_ domain.ImageGenerator = (*Client)(nil)
	_ domain.ModelLister    = (*Client)(nil)
	_ domain.HistorySource  = (*Client)(nil)
	_ domain.Prober         = (*Client)(nil)
)

// NewClient creates a new API client. A zero timeout leaves the transport
// default in place.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With(zap.String("component", "infip")),
	}
}

// Do sends a request and returns the reply without interpreting the status
func (c *Client) Do(ctx context.Context, method, path string, body interface{}) (*domain.RawResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	return &domain.RawResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// Generate submits a generation request and returns the produced image URLs
// in upstream order
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	params := map[string]interface{}{
		"prompt": req.Prompt,
		"model":  req.Model,
		"size":   string(req.Size),
		"n":      req.Count,
	}

	body, err := c.expectOK(ctx, http.MethodPost, domain.GenerationsPath, params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Images []string `json:"images"`
		Data   []struct {
			URL     string `json:"url"`
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	images := make([]string, 0, len(result.Images)+len(result.Data))
	for _, url := range result.Images {
		if url != "" {
			images = append(images, url)
		}
	}
	if len(images) == 0 {
		for _, item := range result.Data {
			switch {
			case item.URL != "":
				images = append(images, item.URL)
			case item.B64JSON != "":
				images = append(images, "data:image/png;base64,"+item.B64JSON)
			}
		}
	}

	return images, nil
}

// ListModels returns the models advertised by the upstream
func (c *Client) ListModels(ctx context.Context) ([]domain.ModelDescriptor, error) {
	body, err := c.expectOK(ctx, http.MethodGet, domain.ModelsPath, nil)
	if err != nil {
		return nil, err
	}

	type modelEntry struct {
		ID   string `json:"id"`
		Tier string `json:"tier"`
	}
	var result struct {
		Models []modelEntry `json:"models"`
		Data   []modelEntry `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	entries := result.Models
	if len(entries) == 0 {
		entries = result.Data
	}

	models := make([]domain.ModelDescriptor, 0, len(entries))
	for _, m := range entries {
		models = append(models, domain.ModelDescriptor{ID: m.ID, Tier: m.Tier})
	}
	return models, nil
}

// ListHistory returns the generation records kept by the upstream
func (c *Client) ListHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	body, err := c.expectOK(ctx, http.MethodGet, domain.HistoryPath, nil)
	if err != nil {
		return nil, err
	}

	var records []domain.HistoryRecord
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &records)
	} else {
		var wrapped struct {
			Data []domain.HistoryRecord `json:"data"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		records = wrapped.Data
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return records, nil
}

// expectOK performs the request and turns any non-2xx reply into an
// *domain.UpstreamError
func (c *Client) expectOK(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Body
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(msg)}
	}

	return resp.Body, nil
}
