// Package vpath implements qmd's external document addressing scheme
// (spec.md §6, "Addressing"): qmd://{collection}/{relative_path}.
package vpath

import (
	"net/url"
	"strings"

	"github.com/qmd-dev/qmd/internal/errors"
)

const scheme = "qmd://"

// Path is a parsed virtual path.
type Path struct {
	Collection string
	RelPath    string
}

// Parse requires the scheme exactly; the first slash-delimited segment
// after qmd:// is the collection name, the rest is the path.
func Parse(raw string) (Path, error) {
	if !strings.HasPrefix(raw, scheme) {
		return Path{}, errors.Validation(errors.CodeInvalidVirtualPath, "virtual path must start with qmd://")
	}
	rest := strings.TrimPrefix(raw, scheme)
	if rest == "" {
		return Path{}, errors.Validation(errors.CodeInvalidVirtualPath, "virtual path is missing a collection")
	}

	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return Path{Collection: rest, RelPath: ""}, nil
	}
	collection := rest[:idx]
	relPath := rest[idx+1:]
	if collection == "" {
		return Path{}, errors.Validation(errors.CodeInvalidVirtualPath, "virtual path is missing a collection")
	}
	return Path{Collection: collection, RelPath: relPath}, nil
}

// String renders p back to qmd://{collection}/{path} form.
func (p Path) String() string {
	if p.RelPath == "" {
		return scheme + p.Collection
	}
	return scheme + p.Collection + "/" + p.RelPath
}

// Encode percent-encodes each slash-delimited segment of relPath while
// preserving the separating slashes (spec.md §6, resource endpoint).
func Encode(relPath string) string {
	segments := strings.Split(relPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// Decode reverses Encode, percent-decoding each segment independently.
func Decode(encoded string) (string, error) {
	segments := strings.Split(encoded, "/")
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return "", errors.Validation(errors.CodeInvalidVirtualPath, "malformed percent-encoding in path segment")
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), nil
}
