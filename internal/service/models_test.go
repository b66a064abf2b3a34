package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imagegate/internal/domain"
)

func TestWithFallback(t *testing.T) {
	defaults := domain.DefaultModels()

	tests := []struct {
		name       string
		models     []domain.ModelDescriptor
		err        error
		wantModels []domain.ModelDescriptor
		wantSource domain.ModelSource
		wantReason string
		wantErr    bool
	}{
		{
			name:       "upstream order preserved",
			models:     []domain.ModelDescriptor{{ID: "uncen"}, {ID: "img4", Tier: "Latest"}, {ID: "flux"}},
			wantModels: []domain.ModelDescriptor{{ID: "uncen"}, {ID: "img4", Tier: "Latest"}, {ID: "flux"}},
			wantSource: domain.ModelSourceUpstream,
		},
		{
			name:       "duplicates and blank ids dropped",
			models:     []domain.ModelDescriptor{{ID: "img4", Tier: "Latest"}, {ID: ""}, {ID: "img4", Tier: "Other"}, {ID: "img3"}},
			wantModels: []domain.ModelDescriptor{{ID: "img4", Tier: "Latest"}, {ID: "img3"}},
			wantSource: domain.ModelSourceUpstream,
		},
		{
			name:       "transport failure",
			err:        errors.New("connection refused"),
			wantModels: defaults,
			wantSource: domain.ModelSourceFallback,
			wantReason: domain.FallbackReasonError,
			wantErr:    true,
		},
		{
			name:       "empty listing",
			models:     []domain.ModelDescriptor{},
			wantModels: defaults,
			wantSource: domain.ModelSourceFallback,
			wantReason: domain.FallbackReasonEmpty,
		},
		{
			name:       "only blank ids",
			models:     []domain.ModelDescriptor{{Tier: "ghost"}},
			wantModels: defaults,
			wantSource: domain.ModelSourceFallback,
			wantReason: domain.FallbackReasonEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := domain.ModelListerFunc(func(ctx context.Context) ([]domain.ModelDescriptor, error) {
				return tt.models, tt.err
			})

			result, err := WithFallback(lister, defaults)(context.Background())

			assert.True(t, result.Success)
			assert.Equal(t, tt.wantModels, result.Models)
			assert.Equal(t, tt.wantSource, result.Source)
			assert.Equal(t, tt.wantReason, result.FallbackReason)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestWithFallback_DefaultsNotShared(t *testing.T) {
	defaults := domain.DefaultModels()
	lister := domain.ModelListerFunc(func(ctx context.Context) ([]domain.ModelDescriptor, error) {
		return nil, errors.New("down")
	})
	policy := WithFallback(lister, defaults)

	first, _ := policy(context.Background())
	first.Models[0].ID = "mutated"

	second, _ := policy(context.Background())
	assert.Equal(t, "img3", second.Models[0].ID)
	assert.Equal(t, "img3", defaults[0].ID)
}

func TestModelRegistry_UnreachableUpstreamUsesBuiltins(t *testing.T) {
	upstream := &mockUpstream{
		ListModelsFunc: func(ctx context.Context) ([]domain.ModelDescriptor, error) {
			return nil, errors.New("dial tcp: no such host")
		},
	}
	registry := NewModelRegistry(upstream, nil, nil)

	result := registry.ListModels(context.Background())

	require.True(t, result.Success)
	ids := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"img3", "img4", "uncen"}, ids)
	assert.Equal(t, domain.ModelSourceFallback, result.Source)
}

func TestModelRegistry_Upstream(t *testing.T) {
	upstream := &mockUpstream{
		ListModelsFunc: func(ctx context.Context) ([]domain.ModelDescriptor, error) {
			return []domain.ModelDescriptor{{ID: "img4", Tier: "Latest"}}, nil
		},
	}
	registry := NewModelRegistry(upstream, nil, nil)

	result := registry.ListModels(context.Background())
	assert.Equal(t, domain.ModelsResult{
		Success: true,
		Models:  []domain.ModelDescriptor{{ID: "img4", Tier: "Latest"}},
		Source:  domain.ModelSourceUpstream,
	}, result)
}
