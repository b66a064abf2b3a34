package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks a request that already had defaults applied. It returns an
// error wrapping ErrValidation.
func (r GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(r.Prompt); n > MaxPromptLength {
		return fmt.Errorf("%w: got %d", ErrPromptTooLong, n)
	}
	if r.Count < MinImageCount || r.Count > MaxImageCount {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, r.Count)
	}
	if !r.Size.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSize, r.Size)
	}
	if r.Model == "" {
		return ErrEmptyModel
	}
	return nil
}

// Normalize trims the prompt and model and fills empty model / size with the
// given defaults. Count is left untouched so that out-of-range values are
// rejected instead of silently changed.
func (r GenerationRequest) Normalize(defaultModel string, defaultSize ImageSize) GenerationRequest {
	r.Prompt = strings.TrimSpace(r.Prompt)
	r.Model = strings.TrimSpace(r.Model)
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.Size == "" {
		r.Size = defaultSize
	}
	return r
}
