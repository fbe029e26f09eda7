package indexer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// headingPattern matches a level 1 or 2 Markdown heading, reusing the
// teacher chunker's header regex shape (internal/chunk/markdown_chunker.go).
var headingPattern = regexp.MustCompile(`(?m)^(#{1,2})\s+(.+)$`)

// skippedTitles are headings ExtractTitle treats as non-titles, falling
// through to the next heading instead (spec.md glossary, "Title extraction").
var skippedTitles = map[string]bool{
	"Notes":    true,
	"📝 Notes": true,
}

// ExtractTitle returns the document title per spec.md's glossary: the
// first level-1/2 heading, skipping a literal "Notes" or "📝 Notes" in
// favor of the next one, falling back to the file's stem.
func ExtractTitle(body, relativePath string) string {
	matches := headingPattern.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		title := strings.TrimSpace(m[2])
		if skippedTitles[title] {
			continue
		}
		if title != "" {
			return title
		}
	}
	return stem(relativePath)
}

func stem(relativePath string) string {
	base := filepath.Base(relativePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
