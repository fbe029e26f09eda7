package llm

import (
	"fmt"
	"math"
	"strings"
)

// expandQueryPrompt builds the fixed instruction spec.md §4.6.3 describes
// for query expansion: ask for count alternate phrasings, one per line,
// no numbering or commentary.
func expandQueryPrompt(query string, count int) string {
	return fmt.Sprintf(
		"Generate %d alternate phrasings of the following search query. "+
			"Each phrasing should use different words but preserve the original "+
			"meaning. Reply with exactly %d lines, one phrasing per line, with no "+
			"numbering, bullets, or commentary.\n\nQuery: %s",
		count, count, query,
	)
}

// ParseExpansions splits a generated expansion response into at most count
// non-empty, de-numbered lines (spec.md §4.6.3).
func ParseExpansions(text string, count int) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, count)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = stripListPrefix(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= count {
			break
		}
	}
	return out
}

// stripListPrefix removes a leading "1.", "1)", "-", or "*" list marker,
// which models commonly emit despite instructions not to.
func stripListPrefix(line string) string {
	trimmed := strings.TrimLeft(line, "0123456789")
	if len(trimmed) < len(line) {
		trimmed = strings.TrimLeft(trimmed, ".) ")
		return strings.TrimSpace(trimmed)
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return strings.TrimSpace(line[2:])
	}
	return line
}

// expFast approximates e^x for x<=0 using math.Exp; kept as a named
// indirection so the rerank confidence curve can be swapped without
// touching call sites.
func expFast(x float64) float64 {
	return math.Exp(x)
}
