// Package llm defines the LLMProvider interface the core consumes
// (spec.md §6) and an HTTP client implementation against an Ollama-style
// API, grounded on the teacher's internal/embed/ollama.go request/response
// shapes. Each request is sent once; a failed request is not retried.
package llm

import "context"

// EmbedOptions configures an embedding request.
type EmbedOptions struct {
	Model   string
	IsQuery bool
	Title   string
}

// EmbedResult is the outcome of a successful embedding call.
type EmbedResult struct {
	Embedding []float32
	Model     string
}

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Logprobs    bool
	Raw         bool
	Stop        []string
}

// TokenLogprob is a single generated token with its log-probability.
type TokenLogprob struct {
	Token   string
	Logprob float64
}

// GenerateResult is the outcome of a successful generation call.
type GenerateResult struct {
	Text     string
	Logprobs []TokenLogprob
	Done     bool
}

// RerankOptions configures a rerank request.
type RerankOptions struct {
	Model     string
	BatchSize int
}

// RerankDoc is one document's rerank verdict.
type RerankDoc struct {
	File       string
	Relevant   bool
	Confidence float64
	Score      float64
	RawToken   string
	Logprob    float64
}

// RerankResult is the outcome of a successful rerank call.
type RerankResult struct {
	Results []RerankDoc
	Model   string
}

// ModelInfo describes a model's availability.
type ModelInfo struct {
	Name       string
	Exists     bool
	Size       int64
	ModifiedAt int64
}

// ProgressFunc reports pull progress as a 0-100 percentage.
type ProgressFunc func(percent int)

// Provider is the external LLM collaborator the core depends on
// (spec.md §6). Implementations must never panic or crash on provider
// failure: a failed Embed/Generate/Rerank call returns a non-nil error
// and a nil result, which callers treat as the taxonomy's
// TransientLLMError (spec.md §7).
type Provider interface {
	Embed(ctx context.Context, text string, opts EmbedOptions) (*EmbedResult, error)
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*GenerateResult, error)
	Rerank(ctx context.Context, query string, docs []string, opts RerankOptions) (*RerankResult, error)
	ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error)
	ModelExists(ctx context.Context, model string) (*ModelInfo, error)
	PullModel(ctx context.Context, model string, onProgress ProgressFunc) (bool, error)
}

// FormatEmbedInput applies spec.md §6's pre-embedding formatting.
func FormatEmbedInput(title, text string) string {
	if title == "" {
		title = "none"
	}
	return "title: " + title + " | text: " + text
}

// FormatQueryInput applies spec.md §6's pre-query formatting.
func FormatQueryInput(query string) string {
	return "task: search result | query: " + query
}
