package domain

import (
	"context"
)

// Generation limits accepted by the upstream image API
const (
	MaxPromptLength = 4000
	MinImageCount   = 1
	MaxImageCount   = 4
)

// ImageSize is one of the fixed output dimensions offered to callers
type ImageSize string

const (
	SizeSquare    ImageSize = "1024x1024"
	SizeLandscape ImageSize = "1792x1024"
	SizePortrait  ImageSize = "1024x1792"
)

// ImageSizes lists the accepted sizes in display order
var ImageSizes = []ImageSize{SizeSquare, SizeLandscape, SizePortrait}

// Valid reports whether s is one of the fixed sizes
func (s ImageSize) Valid() bool {
	for _, size := range ImageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// GenerationRequest represents the parameters for image generation
type GenerationRequest struct {
	Prompt string    `json:"prompt"`
	Model  string    `json:"model"`
	Size   ImageSize `json:"size"`
	Count  int       `json:"n"`
}

// GenerationResult is the discriminated outcome of a generation call.
// Exactly one of Images or Error is populated.
type GenerationResult struct {
	Success bool      `json:"success"`
	Images  []string  `json:"images,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

// GenerationSucceeded builds the success variant
func GenerationSucceeded(images []string) GenerationResult {
	return GenerationResult{Success: true, Images: images}
}

// GenerationFailed builds the failure variant
func GenerationFailed(kind ErrorKind, message string) GenerationResult {
	return GenerationResult{Kind: kind, Error: message}
}

// ImageGenerator is the upstream port used by the orchestrator
type ImageGenerator interface {
	// Generate submits a validated request and returns the produced image URLs
	Generate(ctx context.Context, req GenerationRequest) ([]string, error)
}
