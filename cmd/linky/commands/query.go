// ABOUTME: Query command searches indexed content
// ABOUTME: Embeds the query, prints scored matches, or lists everything stored
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/linky/internal/util"
)

var (
	queryUser     string
	queryMinScore float64
	queryAll      bool
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Search indexed content",
		Long: `Search the indexed content for passages relevant to a query.

Examples:
  linky query "how does the scheduler work"
  linky query --min-score 0.5 "deployment steps"
  linky query --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().StringVar(&queryUser, "user", "default", "User whose namespace to search")
	cmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "Minimum similarity score (0 uses the configured threshold)")
	cmd.Flags().BoolVar(&queryAll, "all", false, "List everything stored instead of searching")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return err
	}
	defer func() { _ = st.logger.Sync() }()

	var query string
	if len(args) > 0 {
		query = args[0]
	}
	if query == "" && !queryAll {
		return fmt.Errorf("provide a query or use --all to list everything")
	}
	if queryAll {
		query = ""
	}

	minScore := queryMinScore
	if minScore == 0 {
		minScore = st.cfg.MinScore
	}

	if err := st.gateway.EnsureIndex(cmd.Context()); err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	matches, err := st.assembler.Matches(cmd.Context(), query, util.UserNamespace(queryUser), minScore)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(matches) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches found")
		}
		return nil
	}

	for i, m := range matches {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. [%.3f] %s\n", i+1, m.Score, truncate(m.Metadata.Chunk, 120))
		if m.Metadata.URL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "   source: %s\n", m.Metadata.URL)
		}
	}
	return nil
}
