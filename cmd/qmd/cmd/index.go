package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qmd-dev/qmd/internal/embedder"
	"github.com/qmd-dev/qmd/internal/indexer"
	"github.com/qmd-dev/qmd/internal/output"
)

func newIndexCmd() *cobra.Command {
	var (
		glob       string
		skipEmbed  bool
		embedModel string
		forceEmbed bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a directory of markdown files",
		Long: `Walk a directory, reconcile it against the store (hash, title,
content, FTS mirror), and deactivate documents for files no longer
present. Embeds any chunk lacking a vector unless --skip-embed is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return runIndex(cmd, abs, glob, skipEmbed, embedModel, forceEmbed)
		},
	}

	cmd.Flags().StringVar(&glob, "glob", "**/*.md", "glob pattern selecting files within the path")
	cmd.Flags().BoolVar(&skipEmbed, "skip-embed", false, "index only, skip embedding")
	cmd.Flags().StringVar(&embedModel, "embed-model", "", "embedding model (defaults to config's defaultEmbedModel)")
	cmd.Flags().BoolVar(&forceEmbed, "force-embed", false, "re-embed every chunk, even if already embedded")

	return cmd
}

func runIndex(cmd *cobra.Command, path, glob string, skipEmbed bool, embedModel string, forceEmbed bool) error {
	w := cmd.OutOrStdout()

	result, err := eng.Indexer.IndexFiles(path, glob, indexer.Options{
		ExcludeDirs:    eng.Config.Indexing.ExcludeDirs,
		FollowSymlinks: true,
	}, func(current, total int, relativePath string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rindexing %d/%d: %s", current, total, relativePath)
	})
	if err != nil {
		output.WriteError(w, err)
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	fmt.Fprintf(w, "indexed=%d updated=%d unchanged=%d removed=%d orphaned_content=%d\n",
		result.Indexed, result.Updated, result.Unchanged, result.Removed, result.OrphanedContent)

	if skipEmbed {
		return nil
	}

	model := embedModel
	if model == "" {
		model = eng.Config.Search.DefaultEmbedModel
	}

	embedResult, err := eng.Embedder.EmbedDocuments(cmd.Context(), embedder.Options{
		Model:         model,
		Force:         forceEmbed,
		ChunkMaxBytes: eng.Config.Indexing.ChunkByteSize,
	}, func(chunksDone, chunksTotal, bytesDone, bytesTotal int) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\rembedding chunk %d/%d", chunksDone, chunksTotal)
	})
	if err != nil {
		output.WriteError(w, err)
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	fmt.Fprintf(w, "hashes_embedded=%d chunks_embedded=%d errors=%d\n",
		embedResult.HashesEmbedded, embedResult.ChunksEmbedded, embedResult.Errors)

	return nil
}
