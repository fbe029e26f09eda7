package mcptool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/qmd-dev/qmd/internal/search"
	"github.com/qmd-dev/qmd/internal/vpath"
)

const resourceMIMEType = "text/markdown"

// virtualPath builds h's externally-addressed qmd://{collection}/{path}
// form, percent-encoding each path segment (spec.md §6, "Addressing").
func (s *Server) virtualPath(h search.Hit) string {
	return vpath.Path{Collection: h.CollectionName, RelPath: vpath.Encode(h.Path)}.String()
}

// registerResources registers one MCP resource per active document across
// every collection, mirroring the teacher's per-file registerFileResource
// (internal/mcp/resources.go), generalized from source files to qmd's
// markdown documents addressed by qmd://{collection}/{path}.
func (s *Server) registerResources() error {
	colls, err := s.engine.Collections.List()
	if err != nil {
		return err
	}
	for _, c := range colls {
		docs, err := s.engine.Documents.ListActive(c.Name)
		if err != nil {
			return err
		}
		for _, d := range docs {
			s.registerDocumentResource(c.Name, d.Path, d.Title)
		}
	}
	return nil
}

func (s *Server) registerDocumentResource(collection, relPath, title string) {
	uri := vpath.Path{Collection: collection, RelPath: vpath.Encode(relPath)}.String()
	name := title
	if name == "" {
		name = relPath
	}
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        name,
			URI:         uri,
			Description: "qmd document " + collection + "/" + relPath,
			MIMEType:    resourceMIMEType,
		},
		s.makeResourceHandler(uri),
	)
}

// makeResourceHandler returns a ResourceHandler that re-resolves uri on
// every read rather than closing over stale content, so edits picked up
// by a later reindex are visible without re-registering the resource.
func (s *Server) makeResourceHandler(uri string) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		doc, err := s.resolveDocument(uri)
		if err != nil {
			return nil, MapError(err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: doc.Path, MIMEType: resourceMIMEType, Text: doc.Content},
			},
		}, nil
	}
}
