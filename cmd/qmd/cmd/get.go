package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	qmderrors "github.com/qmd-dev/qmd/internal/errors"
	"github.com/qmd-dev/qmd/internal/output"
	"github.com/qmd-dev/qmd/internal/store"
	"github.com/qmd-dev/qmd/internal/vpath"
)

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <virtual-path>",
		Short: "Fetch a single document's content by virtual path",
		Long: `Resolves a qmd://{collection}/{path} virtual path to its
document and prints its content. If the path isn't found, lists up to
5 similarly-named active documents in the same collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := resolveAndPrint(args[0])
			if err != nil {
				output.WriteError(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}
	return cmd
}

// resolveAndPrint mirrors mcptool's resolveDocument: parse, decode,
// look up collection and document, load content, falling back to
// similar-path suggestions on a miss (spec.md §6, §7).
func resolveAndPrint(raw string) (string, error) {
	vp, err := vpath.Parse(raw)
	if err != nil {
		return "", err
	}
	relPath, err := vpath.Decode(vp.RelPath)
	if err != nil {
		return "", err
	}

	coll, err := eng.Collections.GetByName(vp.Collection)
	if err != nil {
		return "", err
	}
	if coll == nil {
		return "", notFoundWithSimilar(raw, relPath, nil)
	}

	doc, err := eng.Documents.GetByPath(coll.ID, relPath)
	if err != nil {
		return "", err
	}
	if doc == nil || !doc.Active {
		docs, _ := eng.Documents.ListActive(coll.Name)
		return "", notFoundWithSimilar(raw, relPath, docs)
	}

	body, ok, err := eng.Content.Get(doc.Hash)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", notFoundWithSimilar(raw, relPath, nil)
	}
	return body, nil
}

// notFoundWithSimilar builds a NotFound error annotated with up to 5
// candidate paths whose relative path case-insensitively contains
// relPath (the decoded, collection-relative path actually looked up) as
// a substring, or vice versa (spec.md §6, §7). raw is the original
// virtual path, used only for the error message.
func notFoundWithSimilar(raw, relPath string, candidates []*store.Document) error {
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
	return qmderrors.NotFound(qmderrors.CodeDocumentNotFound, msg)
}
