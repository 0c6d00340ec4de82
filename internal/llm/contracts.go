package llm

import (
	"context"
	"time"
)

// GenerationRequest is one prompt for the text-generation backend.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int     // > 0; backend num_predict
	Temperature float32 // [0, 1]
	Model       string  // optional override of the client default
}

// GenerationResult is returned only for a well-formed backend response;
// partial results never escape the client.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Done             bool
	Duration         time.Duration
}

// Generator is the interface our callers depend on.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}
