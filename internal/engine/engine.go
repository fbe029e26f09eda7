// Package engine is qmd's composition root (spec.md §9, "Global
// process-wide state"): it replaces the teacher's database/LLM singletons
// with one explicit Engine holding the Store and its repositories plus an
// LLMProvider, built once by each frontend and torn down on exit.
package engine

import (
	"log/slog"

	"github.com/qmd-dev/qmd/internal/config"
	"github.com/qmd-dev/qmd/internal/embedder"
	"github.com/qmd-dev/qmd/internal/indexer"
	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/search"
	"github.com/qmd-dev/qmd/internal/store"
)

// Engine bundles every repository and service qmd's frontends (CLI, tool
// server) need, built once and shared for the process's lifetime. The
// command-line entry builds one at start and tears it down on exit; the
// tool server builds one and keeps it for the session (spec.md §9).
type Engine struct {
	Config *config.Config
	Store  *store.Store

	Collections *store.Collections
	Documents   *store.Documents
	Content     *store.Content
	Contexts    *store.Contexts
	Vectors     *store.Vectors
	FTS         *store.FTS
	Cache       *store.Cache

	Provider llm.Provider

	Indexer  *indexer.Indexer
	Embedder *embedder.Embedder
	Search   *search.Engine
}

// Open builds an Engine from cfg: opens the Store, wires every
// repository, constructs the Ollama-backed LLMProvider, and assembles
// the Indexer, Embedder, and SearchEngine on top (spec.md §6, §9).
func Open(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.Open(cfg.DatabasePath(), logger)
	if err != nil {
		return nil, err
	}

	provider := llm.NewOllamaProvider(cfg.Embeddings.LLMBaseURL)

	e := &Engine{
		Config:      cfg,
		Store:       s,
		Collections: store.NewCollections(s),
		Documents:   store.NewDocuments(s),
		Content:     store.NewContent(s),
		Contexts:    store.NewContexts(s),
		Vectors:     store.NewVectors(s),
		FTS:         store.NewFTS(s),
		Cache:       store.NewCache(s),
		Provider:    provider,
		Indexer:     indexer.New(s, logger),
		Embedder:    embedder.New(s, provider, logger),
	}

	e.Search = &search.Engine{
		FTS:         e.FTS,
		Vectors:     e.Vectors,
		Documents:   e.Documents,
		Collections: e.Collections,
		Content:     e.Content,
		Cache:       e.Cache,
		Provider:    e.Provider,
	}

	return e, nil
}

// Close releases the Store's underlying connection.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// HybridSearchOptions builds search.HybridOptions carrying opts unchanged,
// with the query, embed, and rerank models taken from the Engine's config
// defaults and rerank/expand set as given.
func (e *Engine) HybridSearchOptions(opts search.Options, rerank, expand bool) search.HybridOptions {
	return search.HybridOptions{
		Options:     opts,
		QueryModel:  e.Config.Search.DefaultQueryModel,
		EmbedModel:  e.Config.Search.DefaultEmbedModel,
		RerankModel: e.Config.Search.DefaultRerankModel,
		Rerank:      rerank,
		Expand:      expand,
	}
}
