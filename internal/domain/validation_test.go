package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerationRequest_Validate(t *testing.T) {
	valid := GenerationRequest{Prompt: "a red fox", Model: "img4", Size: SizeSquare, Count: 2}

	tests := []struct {
		name    string
		mutate  func(r *GenerationRequest)
		wantErr error
	}{
		{name: "valid request", mutate: func(r *GenerationRequest) {}},
		{name: "empty prompt", mutate: func(r *GenerationRequest) { r.Prompt = "" }, wantErr: ErrEmptyPrompt},
		{name: "prompt at limit", mutate: func(r *GenerationRequest) { r.Prompt = strings.Repeat("é", MaxPromptLength) }},
		{name: "prompt over limit", mutate: func(r *GenerationRequest) { r.Prompt = strings.Repeat("a", MaxPromptLength+1) }, wantErr: ErrPromptTooLong},
		{name: "count zero", mutate: func(r *GenerationRequest) { r.Count = 0 }, wantErr: ErrInvalidCount},
		{name: "count five", mutate: func(r *GenerationRequest) { r.Count = 5 }, wantErr: ErrInvalidCount},
		{name: "count negative", mutate: func(r *GenerationRequest) { r.Count = -1 }, wantErr: ErrInvalidCount},
		{name: "max count", mutate: func(r *GenerationRequest) { r.Count = MaxImageCount }},
		{name: "unknown size", mutate: func(r *GenerationRequest) { r.Size = "512x512" }, wantErr: ErrInvalidSize},
		{name: "landscape", mutate: func(r *GenerationRequest) { r.Size = SizeLandscape }},
		{name: "portrait", mutate: func(r *GenerationRequest) { r.Size = SizePortrait }},
		{name: "empty model", mutate: func(r *GenerationRequest) { r.Model = "" }, wantErr: ErrEmptyModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestGenerationRequest_Normalize(t *testing.T) {
	req := GenerationRequest{Prompt: "  a red fox \n", Count: 0}.Normalize("img4", SizeSquare)

	if req.Prompt != "a red fox" {
		t.Errorf("Prompt = %q, want trimmed", req.Prompt)
	}
	if req.Model != "img4" {
		t.Errorf("Model = %q, want default", req.Model)
	}
	if req.Size != SizeSquare {
		t.Errorf("Size = %q, want default", req.Size)
	}
	if req.Count != 0 {
		t.Errorf("Count = %d, Normalize must not touch count", req.Count)
	}

	kept := GenerationRequest{Prompt: "x", Model: "uncen", Size: SizePortrait, Count: 3}.Normalize("img4", SizeSquare)
	if kept.Model != "uncen" || kept.Size != SizePortrait || kept.Count != 3 {
		t.Errorf("Normalize overwrote caller values: %+v", kept)
	}
}

func TestGenerationRequest_WhitespacePromptRejected(t *testing.T) {
	req := GenerationRequest{Prompt: " \t\n ", Count: 1}.Normalize("img4", SizeSquare)
	if err := req.Validate(); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Validate() error = %v, want ErrEmptyPrompt", err)
	}
}
