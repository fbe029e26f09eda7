package mcptool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qmd-dev/qmd/internal/search"
	"github.com/qmd-dev/qmd/internal/store"
	"github.com/qmd-dev/qmd/internal/vpath"
)

// ResultItem is a single document match, uniform across search, vsearch,
// and query (spec.md §6: "file, title, score, optional snippet, optional
// context").
type ResultItem struct {
	File    string  `json:"file" jsonschema:"virtual path of the matching document"`
	Title   string  `json:"title,omitempty" jsonschema:"document title"`
	Score   float64 `json:"score" jsonschema:"relevance score"`
	Snippet string  `json:"snippet,omitempty" jsonschema:"matched snippet, if available"`
	Context string  `json:"context,omitempty" jsonschema:"inherited path context, if any"`
}

// SearchInput is the shared input schema for search, vsearch, and query.
type SearchInput struct {
	Query      string  `json:"query" jsonschema:"the search query"`
	Collection string  `json:"collection,omitempty" jsonschema:"restrict to this collection name"`
	Limit      int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	MinScore   float64 `json:"min_score,omitempty" jsonschema:"drop results scoring below this threshold"`
}

// SearchOutput is the shared output schema for search, vsearch, and query:
// a human-readable summary plus structured results.
type SearchOutput struct {
	Summary string       `json:"summary" jsonschema:"human-readable summary of the results"`
	Results []ResultItem `json:"results" jsonschema:"structured list of matching documents"`
}

func (s *Server) options(in SearchInput) search.Options {
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	return search.Options{CollectionName: in.Collection, Limit: limit, MinScore: in.MinScore}
}

func (s *Server) toResults(hits []search.Hit) []ResultItem {
	out := make([]ResultItem, 0, len(hits))
	for _, h := range hits {
		item := ResultItem{
			File:    s.virtualPath(h),
			Title:   h.Title,
			Score:   h.Score,
			Snippet: h.Snippet,
		}
		if ctx, ok, err := s.engine.Contexts.GetContextForPath(s.collectionID(h.CollectionName), h.Path); err == nil && ok {
			item.Context = ctx
		}
		out = append(out, item)
	}
	return out
}

func (s *Server) collectionID(name string) int64 {
	coll, err := s.engine.Collections.GetByName(name)
	if err != nil || coll == nil {
		return 0
	}
	return coll.ID
}

// dropBelowMinScore applies SearchInput.MinScore to SearchFTS/SearchVector
// hits, which those functions return unfiltered.
func dropBelowMinScore(hits []search.Hit, minScore float64) []search.Hit {
	if minScore <= 0 {
		return hits
	}
	out := make([]search.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= minScore {
			out = append(out, h)
		}
	}
	return out
}

func summarize(query string, results []ResultItem) string {
	if len(results) == 0 {
		return fmt.Sprintf("no matches for %q", query)
	}
	return fmt.Sprintf("%d match(es) for %q, top: %s (score=%.3f)", len(results), query, results[0].File, results[0].Score)
}

// handleSearch runs lexical (FTS) search (spec.md §4.6.1).
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	defer s.logCall("search")()
	if in.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required")
	}
	hits, err := search.SearchFTS(s.engine.FTS, in.Query, s.options(in))
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}
	results := s.toResults(dropBelowMinScore(hits, in.MinScore))
	return nil, SearchOutput{Summary: summarize(in.Query, results), Results: results}, nil
}

// handleVSearch runs semantic (vector) search (spec.md §4.6.2).
func (s *Server) handleVSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	defer s.logCall("vsearch")()
	if in.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required")
	}
	model := s.engine.Config.Search.DefaultEmbedModel
	hits, err := search.SearchVector(ctx, s.engine.Vectors, s.engine.Documents, s.engine.Collections, s.engine.Provider, in.Query, model, s.options(in))
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}
	results := s.toResults(dropBelowMinScore(hits, in.MinScore))
	return nil, SearchOutput{Summary: summarize(in.Query, results), Results: results}, nil
}

// handleQuery runs the full hybrid pipeline: expansion, parallel FTS and
// vector search per expanded query, RRF fusion, and reranking (spec.md
// §4.6.4).
func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	defer s.logCall("query")()
	if in.Query == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query is required")
	}
	opts := s.engine.HybridSearchOptions(s.options(in), s.engine.Config.Search.RerankEnabled, true)
	hits, err := s.engine.Search.SearchHybrid(ctx, in.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}
	results := s.toResults(hits)
	return nil, SearchOutput{Summary: summarize(in.Query, results), Results: results}, nil
}

// GetInput addresses a single document by its virtual path.
type GetInput struct {
	Path string `json:"path" jsonschema:"virtual path, e.g. qmd://collection/docs/guide.md"`
}

// GetOutput is a single document's content and metadata.
type GetOutput struct {
	Path    string `json:"path" jsonschema:"virtual path of the document"`
	Title   string `json:"title,omitempty" jsonschema:"document title"`
	Content string `json:"content" jsonschema:"document body"`
	Context string `json:"context,omitempty" jsonschema:"inherited path context, if any"`
}

// handleGet resolves a virtual path to its document and returns its full
// content, falling back to similar paths when the document is absent
// (spec.md §6, §7 NotFound).
func (s *Server) handleGet(ctx context.Context, _ *mcp.CallToolRequest, in GetInput) (*mcp.CallToolResult, GetOutput, error) {
	defer s.logCall("get")()
	out, err := s.resolveDocument(in.Path)
	if err != nil {
		return nil, GetOutput{}, MapError(err)
	}
	return nil, out, nil
}

// MultiGetInput addresses several documents at once.
type MultiGetInput struct {
	Paths []string `json:"paths" jsonschema:"virtual paths to fetch"`
}

// MultiGetResult reports one path's outcome: either content, or a skip
// reason (oversized per the configured cap, or not found).
type MultiGetResult struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// MultiGetOutput is multi_get's response: a summary plus per-path results.
type MultiGetOutput struct {
	Summary string           `json:"summary"`
	Results []MultiGetResult `json:"results"`
}

// handleMultiGet fetches several documents, skipping any whose content
// exceeds the configured multiGetMaxBytes cap rather than failing the
// whole call (spec.md §6, configuration table).
func (s *Server) handleMultiGet(ctx context.Context, _ *mcp.CallToolRequest, in MultiGetInput) (*mcp.CallToolResult, MultiGetOutput, error) {
	defer s.logCall("multi_get")()
	maxBytes := s.engine.Config.Indexing.MultiGetMaxBytes
	results := make([]MultiGetResult, 0, len(in.Paths))
	fetched := 0
	for _, p := range in.Paths {
		out, err := s.resolveDocument(p)
		if err != nil {
			results = append(results, MultiGetResult{Path: p, Skipped: true, Reason: err.Error()})
			continue
		}
		if maxBytes > 0 && int64(len(out.Content)) > maxBytes {
			results = append(results, MultiGetResult{Path: p, Skipped: true, Reason: "exceeds multi_get size cap"})
			continue
		}
		results = append(results, MultiGetResult{Path: p, Content: out.Content})
		fetched++
	}
	summary := fmt.Sprintf("fetched %d of %d document(s)", fetched, len(in.Paths))
	return nil, MultiGetOutput{Summary: summary, Results: results}, nil
}

// StatusInput takes no parameters.
type StatusInput struct{}

// CollectionStatus reports a single collection's indexing state.
type CollectionStatus struct {
	Name            string `json:"name"`
	ActiveDocuments int    `json:"active_documents"`
}

// StatusOutput reports qmd's indexing and model configuration.
type StatusOutput struct {
	Summary           string             `json:"summary"`
	Collections       []CollectionStatus `json:"collections"`
	DefaultEmbedModel string             `json:"default_embed_model"`
	DefaultQueryModel string             `json:"default_query_model"`
	DefaultRerankModel string            `json:"default_rerank_model"`
	RerankEnabled     bool               `json:"rerank_enabled"`
}

// handleStatus reports every collection's active document count and the
// configured model defaults (spec.md §6).
func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	defer s.logCall("status")()
	colls, err := s.engine.Collections.List()
	if err != nil {
		return nil, StatusOutput{}, MapError(err)
	}
	out := StatusOutput{
		Collections:         make([]CollectionStatus, 0, len(colls)),
		DefaultEmbedModel:   s.engine.Config.Search.DefaultEmbedModel,
		DefaultQueryModel:   s.engine.Config.Search.DefaultQueryModel,
		DefaultRerankModel:  s.engine.Config.Search.DefaultRerankModel,
		RerankEnabled:       s.engine.Config.Search.RerankEnabled,
	}
	for _, c := range colls {
		docs, err := s.engine.Documents.ListActive(c.Name)
		if err != nil {
			return nil, StatusOutput{}, MapError(err)
		}
		out.Collections = append(out.Collections, CollectionStatus{Name: c.Name, ActiveDocuments: len(docs)})
	}
	out.Summary = fmt.Sprintf("%d collection(s) indexed", len(out.Collections))
	return nil, out, nil
}

// resolveDocument parses a virtual path, looks up the document, and
// returns its content. On a missing collection or document it returns a
// NotFound error carrying up to 5 similar paths (spec.md §7).
func (s *Server) resolveDocument(raw string) (GetOutput, error) {
	vp, err := vpath.Parse(raw)
	if err != nil {
		return GetOutput{}, err
	}
	relPath, err := vpath.Decode(vp.RelPath)
	if err != nil {
		return GetOutput{}, err
	}

	coll, err := s.engine.Collections.GetByName(vp.Collection)
	if err != nil {
		return GetOutput{}, err
	}
	if coll == nil {
		return GetOutput{}, s.notFoundWithSimilar(raw, relPath, nil)
	}

	doc, err := s.engine.Documents.GetByPath(coll.ID, relPath)
	if err != nil {
		return GetOutput{}, err
	}
	if doc == nil || !doc.Active {
		docs, _ := s.engine.Documents.ListActive(coll.Name)
		return GetOutput{}, s.notFoundWithSimilar(raw, relPath, docs)
	}

	body, ok, err := s.engine.Content.Get(doc.Hash)
	if err != nil {
		return GetOutput{}, err
	}
	if !ok {
		return GetOutput{}, s.notFoundWithSimilar(raw, relPath, nil)
	}

	out := GetOutput{Path: vpath.Path{Collection: coll.Name, RelPath: doc.Path}.String(), Title: doc.Title, Content: body}
	if ctxStr, found, err := s.engine.Contexts.GetContextForPath(coll.ID, doc.Path); err == nil && found {
		out.Context = ctxStr
	}
	return out, nil
}

// notFoundWithSimilar builds a NotFound error annotated with up to 5
// candidate paths whose relative path case-insensitively contains
// relPath (the decoded, collection-relative path actually looked up) as
// a substring, or vice versa (spec.md §6, §7). raw is the original
// virtual path, used only for the error message.
func (s *Server) notFoundWithSimilar(raw, relPath string, candidates []*store.Document) error {
	var similar []string
	needle := strings.ToLower(relPath)
	for _, d := range candidates {
		if len(similar) >= 5 {
			break
		}
		if strings.Contains(strings.ToLower(d.Path), needle) || strings.Contains(needle, strings.ToLower(d.Path)) {
			similar = append(similar, d.Path)
		}
	}
	msg := fmt.Sprintf("document not found: %s", raw)
	if len(similar) > 0 {
		msg = fmt.Sprintf("%s (similar: %s)", msg, strings.Join(similar, ", "))
	}
	return notFoundError(msg)
}
