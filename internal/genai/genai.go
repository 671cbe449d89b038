// Package genai is the content-generation capability used by the pipeline
// steps. Steps depend on the Generator interface only; Client is the Gemini
// REST implementation.
package genai

import (
	"context"
	"errors"
	"strings"
)

// Params tunes a single generation call.
type Params struct {
	Temperature     float64
	MaxOutputTokens int
	Search          bool // enable search grounding
	ThinkingBudget  int  // 0 leaves the model default
}

// Per-step generation parameters.
var (
	ResearchParams  = Params{Temperature: 0.7, MaxOutputTokens: 60000, Search: true, ThinkingBudget: 8192}
	ContentParams   = Params{Temperature: 0.7, MaxOutputTokens: 8192}
	InterfaceParams = Params{Temperature: 0.7, MaxOutputTokens: 16384}
	TranslateParams = Params{Temperature: 0.1, MaxOutputTokens: 65536, ThinkingBudget: 2048}
)

// Generator produces text for a prompt. Tests can substitute a fake.
type Generator interface {
	Generate(ctx context.Context, credential, prompt string, p Params) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, credential, prompt string, p Params) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, credential, prompt string, p Params) (string, error) {
	return f(ctx, credential, prompt, p)
}

// ErrInvalidCredential is returned before any call when the API key is blank.
var ErrInvalidCredential = errors.New("API key is invalid or empty")

// CheckCredential rejects a blank API key.
func CheckCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return ErrInvalidCredential
	}
	return nil
}
