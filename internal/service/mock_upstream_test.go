package service

import (
	"context"
	"sync"

	"github.com/basel-ax/imagegate/internal/domain"
)

// mockUpstream is a func-field mock of every upstream port that records calls.
type mockUpstream struct {
	GenerateFunc    func(ctx context.Context, req domain.GenerationRequest) ([]string, error)
	ListModelsFunc  func(ctx context.Context) ([]domain.ModelDescriptor, error)
	ListHistoryFunc func(ctx context.Context) ([]domain.HistoryRecord, error)
	DoFunc          func(ctx context.Context, method, path string, body interface{}) (*domain.RawResponse, error)

	mu       sync.Mutex
	requests []domain.GenerationRequest
	probes   []string
}

func (m *mockUpstream) Generate(ctx context.Context, req domain.GenerationRequest) ([]string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockUpstream) ListModels(ctx context.Context) ([]domain.ModelDescriptor, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return nil, nil
}

func (m *mockUpstream) ListHistory(ctx context.Context) ([]domain.HistoryRecord, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx)
	}
	return nil, nil
}

func (m *mockUpstream) Do(ctx context.Context, method, path string, body interface{}) (*domain.RawResponse, error) {
	m.mu.Lock()
	m.probes = append(m.probes, method+" "+path)
	m.mu.Unlock()
	if m.DoFunc != nil {
		return m.DoFunc(ctx, method, path, body)
	}
	return &domain.RawResponse{StatusCode: 200}, nil
}

func (m *mockUpstream) calls() []domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.GenerationRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
