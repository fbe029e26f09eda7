package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qmd-dev/qmd/internal/errors"
)

// OllamaProvider implements Provider against an Ollama-compatible HTTP
// API, grounded on the teacher's OllamaEmbedder connection pooling and
// timeout handling (internal/embed/ollama.go).
type OllamaProvider struct {
	baseURL string
	client  *http.Client
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider builds a provider against baseURL (e.g.
// "http://localhost:11434").
func NewOllamaProvider(baseURL string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        8,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     10 * time.Second,
			},
		},
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed calls POST /api/embed. A network failure or non-2xx response
// yields a TransientLLMError and a nil result, never a panic.
func (p *OllamaProvider) Embed(ctx context.Context, text string, opts EmbedOptions) (*EmbedResult, error) {
	input := text
	if opts.IsQuery {
		input = FormatQueryInput(text)
	} else {
		input = FormatEmbedInput(opts.Title, text)
	}

	reqBody, err := json.Marshal(ollamaEmbedRequest{Model: opts.Model, Input: input})
	if err != nil {
		return nil, errors.TransientLLM(errors.CodeProviderError, "marshal embed request", err)
	}

	var resp ollamaEmbedResponse
	if err := p.postJSON(ctx, "/api/embed", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.TransientLLM(errors.CodeProviderNilResp, "embed response had no vectors", nil)
	}
	return &EmbedResult{Embedding: resp.Embeddings[0], Model: opts.Model}, nil
}

type ollamaGenerateRequest struct {
	Model    string        `json:"model"`
	Prompt   string        `json:"prompt"`
	Raw      bool          `json:"raw,omitempty"`
	Stream   bool          `json:"stream"`
	Logprobs bool          `json:"logprobs,omitempty"`
	Options  ollamaOptions `json:"options,omitempty"`
	Stop     []string      `json:"stop,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaLogprob struct {
	Token   string  `json:"token"`
	Logprob float64 `json:"logprob"`
}

type ollamaGenerateResponse struct {
	Response string          `json:"response"`
	Done     bool            `json:"done"`
	Logprobs []ollamaLogprob `json:"logprobs"`
}

// Generate calls POST /api/generate with streaming disabled.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*GenerateResult, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:    opts.Model,
		Prompt:   prompt,
		Raw:      opts.Raw,
		Stream:   false,
		Logprobs: opts.Logprobs,
		Stop:     opts.Stop,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	})
	if err != nil {
		return nil, errors.TransientLLM(errors.CodeProviderError, "marshal generate request", err)
	}

	var resp ollamaGenerateResponse
	if err := p.postJSON(ctx, "/api/generate", reqBody, &resp); err != nil {
		return nil, err
	}

	out := &GenerateResult{Text: resp.Response, Done: resp.Done}
	for _, lp := range resp.Logprobs {
		out.Logprobs = append(out.Logprobs, TokenLogprob{Token: lp.Token, Logprob: lp.Logprob})
	}
	return out, nil
}

// Rerank asks the model a single yes/no question for each document in
// docs, in order, deriving a score from the top-token logprob (spec.md
// §4.6, "Rerank"); a document whose Generate call fails gets 0.3.
// opts.BatchSize is not read here: every document in docs is scored in
// this one call, and splitting into batches is left to the caller.
func (p *OllamaProvider) Rerank(ctx context.Context, query string, docs []string, opts RerankOptions) (*RerankResult, error) {
	out := &RerankResult{Model: opts.Model}
	for _, doc := range docs {
		prompt := fmt.Sprintf(
			"Query: %s\n\nDocument:\n%s\n\nIs this document relevant to the query? Answer with a single word, yes or no.",
			query, doc,
		)
		res, err := p.Generate(ctx, prompt, GenerateOptions{Model: opts.Model, MaxTokens: 1, Temperature: 0, Logprobs: true})
		if err != nil || res == nil {
			out.Results = append(out.Results, RerankDoc{File: doc, Score: 0.3})
			continue
		}
		out.Results = append(out.Results, scoreRerankResponse(doc, res))
	}
	return out, nil
}

func scoreRerankResponse(doc string, res *GenerateResult) RerankDoc {
	token := strings.ToLower(strings.TrimSpace(res.Text))
	var logprob float64
	if len(res.Logprobs) > 0 {
		token = strings.ToLower(strings.TrimSpace(res.Logprobs[0].Token))
		logprob = res.Logprobs[0].Logprob
	}

	d := RerankDoc{File: doc, RawToken: token, Logprob: logprob}
	confidence := expClamp(logprob)
	d.Confidence = confidence

	switch {
	case strings.HasPrefix(token, "yes"):
		d.Relevant = true
		d.Score = 0.5 + 0.5*confidence
	case strings.HasPrefix(token, "no"):
		d.Score = 0.5 * (1 - confidence)
	default:
		d.Score = 0.3
	}
	return d
}

// ExpandQuery asks the model for count paraphrases via the fixed
// instruction from spec.md's glossary. The search package's ExpandQuery
// (the core operation) wraps this with caching per §4.6.3.
func (p *OllamaProvider) ExpandQuery(ctx context.Context, query, model string, count int) ([]string, error) {
	res, err := p.Generate(ctx, expandQueryPrompt(query, count), GenerateOptions{Model: model, MaxTokens: 256, Temperature: 0.7})
	if err != nil || res == nil {
		return []string{query}, err
	}
	return append([]string{query}, ParseExpansions(res.Text, count)...), nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name       string `json:"name"`
		Size       int64  `json:"size"`
		ModifiedAt string `json:"modified_at"`
	} `json:"models"`
}

// ModelExists calls GET /api/tags and checks membership.
func (p *OllamaProvider) ModelExists(ctx context.Context, model string) (*ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, errors.TransientLLM(errors.CodeProviderError, "build tags request", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.TransientLLM(errors.CodeProviderError, "tags request failed", err)
	}
	defer resp.Body.Close()

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, errors.TransientLLM(errors.CodeProviderError, "decode tags response", err)
	}
	for _, m := range tags.Models {
		if strings.EqualFold(m.Name, model) {
			return &ModelInfo{Name: m.Name, Exists: true, Size: m.Size}, nil
		}
	}
	return &ModelInfo{Name: model, Exists: false}, nil
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// PullModel calls POST /api/pull with streaming disabled; onProgress, if
// non-nil, is called once with 100 after the pull request succeeds.
func (p *OllamaProvider) PullModel(ctx context.Context, model string, onProgress ProgressFunc) (bool, error) {
	reqBody, err := json.Marshal(ollamaPullRequest{Model: model, Stream: false})
	if err != nil {
		return false, errors.TransientLLM(errors.CodeProviderError, "marshal pull request", err)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := p.postJSON(ctx, "/api/pull", reqBody, &resp); err != nil {
		return false, err
	}
	if onProgress != nil {
		onProgress(100)
	}
	return resp.Status == "" || resp.Status == "success", nil
}

func (p *OllamaProvider) postJSON(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.TransientLLM(errors.CodeProviderError, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.TransientLLM(errors.CodeProviderError, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return errors.TransientLLM(errors.CodeProviderError,
			fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, string(data)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.TransientLLM(errors.CodeProviderError, "decode response", err)
	}
	return nil
}

func expClamp(logprob float64) float64 {
	if logprob > 0 {
		logprob = 0
	}
	v := expFast(logprob)
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
