// Package output renders search results and status for the CLI frontend,
// grounded on the teacher's internal/ui/styles.go palette and
// internal/ui.go's TTY/NO_COLOR detection.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/qmd-dev/qmd/internal/search"
)

const (
	colorAccent = "154" // bright lime green, matches the teacher's palette
	colorDim    = "245"
	colorTitle  = "255"
	colorError  = "196"
)

// Styles holds the lipgloss styles used to render a result list. Plain
// mode (no TTY, or NO_COLOR set) uses an all-unstyled set.
type Styles struct {
	Title   lipgloss.Style
	Path    lipgloss.Style
	Score   lipgloss.Style
	Snippet lipgloss.Style
	Error   lipgloss.Style
}

// Colored returns the styled palette.
func Colored() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle)),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Snippet: lipgloss.NewStyle().Foreground(lipgloss.Color(colorDim)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)),
	}
}

// Plain returns an unstyled palette, used for piped/CI output.
func Plain() Styles {
	return Styles{
		Title:   lipgloss.NewStyle(),
		Path:    lipgloss.NewStyle(),
		Score:   lipgloss.NewStyle(),
		Snippet: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
	}
}

// IsTTY reports whether w is a terminal, honoring NO_COLOR.
func IsTTY(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// StylesFor picks Colored or Plain based on whether w is a terminal.
func StylesFor(w io.Writer) Styles {
	if IsTTY(w) {
		return Colored()
	}
	return Plain()
}

// WriteHits renders hits as a numbered list: title, virtual path, score,
// and an optional snippet, to w.
func WriteHits(w io.Writer, hits []search.Hit, virtualPath func(search.Hit) string) {
	s := StylesFor(w)
	if len(hits) == 0 {
		fmt.Fprintln(w, s.Snippet.Render("no results"))
		return
	}
	for i, h := range hits {
		title := h.Title
		if title == "" {
			title = h.Path
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, s.Title.Render(title))
		fmt.Fprintf(w, "   %s  %s\n", s.Path.Render(virtualPath(h)), s.Score.Render(fmt.Sprintf("score=%.3f", h.Score)))
		if h.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", s.Snippet.Render(h.Snippet))
		}
	}
}

// WriteError renders err's message in the error style.
func WriteError(w io.Writer, err error) {
	s := StylesFor(w)
	fmt.Fprintln(w, s.Error.Render(err.Error()))
}
