// Package embedder implements embedDocuments (spec.md §4.5): embed every
// hash with at least one active document but no content_vectors row for
// the target model at seq=0. Grounded on the teacher's embed package
// (internal/embed/ollama.go) for provider usage and internal/index/runner.go
// for progress-callback shape.
package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/qmd-dev/qmd/internal/chunk"
	"github.com/qmd-dev/qmd/internal/llm"
	"github.com/qmd-dev/qmd/internal/store"
)

// ProgressFunc reports (chunksDone, chunksTotal, bytesDone, bytesTotal).
type ProgressFunc func(chunksDone, chunksTotal, bytesDone, bytesTotal int)

// Options configures a single embedDocuments run.
type Options struct {
	Model         string
	Force         bool
	ChunkMaxBytes int
}

// Result is embedDocuments' outcome.
type Result struct {
	HashesEmbedded int
	ChunksEmbedded int
	Errors         int
}

// target is one hash awaiting embedding, with its body and a
// representative title borrowed from an active document referencing it.
type target struct {
	hash  string
	body  string
	title string
}

// Embedder owns the repositories and provider embedDocuments touches.
type Embedder struct {
	content   *store.Content
	documents *store.Documents
	vectors   *store.Vectors
	provider  llm.Provider
	logger    *slog.Logger
}

// New builds an Embedder over s's repositories and provider.
func New(s *store.Store, provider llm.Provider, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		content:   store.NewContent(s),
		documents: store.NewDocuments(s),
		vectors:   store.NewVectors(s),
		provider:  provider,
		logger:    logger,
	}
}

// EmbedDocuments runs spec.md §4.5's full pass for opts.Model.
func (e *Embedder) EmbedDocuments(ctx context.Context, opts Options, progress ProgressFunc) (*Result, error) {
	if opts.Force {
		if err := e.vectors.Reset(); err != nil {
			return nil, err
		}
	}

	targets, err := e.gatherTargets(opts.Model)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if len(targets) == 0 {
		return result, nil
	}

	totalBytes := 0
	totalChunkCount := 0
	perTargetChunks := make([][]chunk.Chunk, len(targets))
	for i, t := range targets {
		perTargetChunks[i] = chunk.Split(t.body, opts.ChunkMaxBytes)
		totalBytes += len(t.body)
		totalChunkCount += len(perTargetChunks[i])
	}

	dimensionFixed := false
	bytesDone, chunksDone := 0, 0

	for i, t := range targets {
		chunks := perTargetChunks[i]
		hadError := false

		for seq, c := range chunks {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}

			res, embedErr := e.provider.Embed(ctx, c.Text, llm.EmbedOptions{Model: opts.Model, IsQuery: false, Title: t.title})
			if embedErr != nil || res == nil {
				e.logger.Warn("embed failed", slog.String("hash", t.hash), slog.Int("seq", seq), slog.Any("error", embedErr))
				result.Errors++
				hadError = true
				continue
			}

			if !dimensionFixed {
				if err := e.vectors.EnsureVecTable(len(res.Embedding)); err != nil {
					return result, err
				}
				dimensionFixed = true
			}

			cv := store.ContentVector{Hash: t.hash, Seq: seq, Pos: c.Pos, Model: opts.Model, EmbeddedAt: time.Now()}
			if err := e.vectors.Insert(cv, res.Embedding); err != nil {
				e.logger.Warn("persist embedding failed", slog.String("hash", t.hash), slog.Int("seq", seq), slog.Any("error", err))
				result.Errors++
				hadError = true
				continue
			}

			chunksDone++
			result.ChunksEmbedded++
			bytesDone += len(c.Text)
			if progress != nil {
				progress(chunksDone, totalChunkCount, bytesDone, totalBytes)
			}
		}

		if !hadError {
			result.HashesEmbedded++
		}
	}

	return result, nil
}

// gatherTargets collects every hash with an active document but no
// content_vectors row for model at seq=0 (spec.md §4.5 step 1-2).
func (e *Embedder) gatherTargets(model string) ([]target, error) {
	docs, err := e.documents.ListActive("")
	if err != nil {
		return nil, err
	}

	byHash := make(map[string]target)
	order := make([]string, 0)
	for _, doc := range docs {
		if _, ok := byHash[doc.Hash]; ok {
			continue
		}
		has, err := e.vectors.HasEmbedding(doc.Hash, model)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}

		body, ok, err := e.content.Get(doc.Hash)
		if err != nil {
			return nil, err
		}
		if !ok || body == "" {
			continue
		}

		byHash[doc.Hash] = target{hash: doc.Hash, body: body, title: doc.Title}
		order = append(order, doc.Hash)
	}

	out := make([]target, 0, len(order))
	for _, h := range order {
		out = append(out, byHash[h])
	}
	return out, nil
}
