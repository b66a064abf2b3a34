package domain

import "context"

// ModelDescriptor describes a generation model offered by the upstream
type ModelDescriptor struct {
	ID   string `json:"id"`
	Tier string `json:"tier,omitempty"`
}

// ModelSource tells where a model list came from
type ModelSource string

const (
	ModelSourceUpstream ModelSource = "upstream"
	ModelSourceFallback ModelSource = "fallback"
)

// Reasons the built-in model set was substituted
const (
	FallbackReasonEmpty = "empty"
	FallbackReasonError = "error"
)

// ModelsResult is returned by the model registry. It is always a success;
// Source and FallbackReason tell a real listing apart from the built-in set.
type ModelsResult struct {
	Success        bool              `json:"success"`
	Models         []ModelDescriptor `json:"models"`
	Source         ModelSource       `json:"source"`
	FallbackReason string            `json:"fallback_reason,omitempty"`
}

// DefaultModels returns the built-in model set used when the upstream listing
// is unusable. A fresh slice is returned on every call.
func DefaultModels() []ModelDescriptor {
	return []ModelDescriptor{
		{ID: "img3", Tier: "Advanced"},
		{ID: "img4", Tier: "Latest"},
		{ID: "uncen", Tier: "Unrestricted"},
	}
}

// ModelLister is the upstream port for model discovery
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelDescriptor, error)
}

// ModelListerFunc adapts a plain function to ModelLister
type ModelListerFunc func(ctx context.Context) ([]ModelDescriptor, error)

// ListModels calls f(ctx)
func (f ModelListerFunc) ListModels(ctx context.Context) ([]ModelDescriptor, error) {
	return f(ctx)
}
