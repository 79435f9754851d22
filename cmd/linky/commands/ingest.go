// ABOUTME: Ingest command fetches a URL and indexes its content
// ABOUTME: Streams progress to the terminal while chunks are embedded
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/util"
)

var (
	ingestUser    string
	ingestMethod  string
	ingestSize    int
	ingestOverlap int
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [url]",
		Short: "Fetch a URL and index its content",
		Long: `Fetch a URL, split the page into chunks, embed each chunk, and
store the vectors. Re-ingesting identical content is a no-op because
record IDs are derived from chunk content.

Examples:
  linky ingest https://example.com/article
  linky ingest --method markdown https://example.com/readme
  linky ingest --chunk-size 512 --chunk-overlap 32 https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestUser, "user", "default", "User whose namespace receives the content")
	cmd.Flags().StringVar(&ingestMethod, "method", "", "Chunking strategy: recursive or markdown")
	cmd.Flags().IntVar(&ingestSize, "chunk-size", 0, "Maximum chunk size in characters")
	cmd.Flags().IntVar(&ingestOverlap, "chunk-overlap", 0, "Overlap between adjacent chunks")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return err
	}
	defer func() { _ = st.logger.Sync() }()

	url := args[0]
	opts := models.IngestOptions{
		SplitStrategy: models.SplitStrategy(ingestMethod),
		ChunkSize:     ingestSize,
		ChunkOverlap:  ingestOverlap,
	}

	onProgress := func(event models.ProgressEvent) error {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\rIndexing... %3d%%", event.Progress)
		}
		return nil
	}

	result, err := st.seeder.Seed(cmd.Context(), url, opts, util.UserNamespace(ingestUser), onProgress)
	if err != nil {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return fmt.Errorf("ingesting %s: %w", url, err)
	}

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %s: %d chunks stored", url, result.Upserted)
		if result.Skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), " (%d skipped)", result.Skipped)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
