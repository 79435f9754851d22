// ABOUTME: Clear command wipes a user's indexed content
// ABOUTME: Deletes the user's vector store namespace
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/linky/internal/util"
)

var clearUser string

// NewClearCmd creates the clear command
func NewClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all indexed content for a user",
		Long: `Delete all indexed content for a user.

Removes every record in the user's namespace. Clearing a namespace
that holds nothing succeeds.`,
		RunE: runClear,
	}

	cmd.Flags().StringVar(&clearUser, "user", "default", "User whose namespace to clear")

	return cmd
}

func runClear(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return err
	}
	defer func() { _ = st.logger.Sync() }()

	if err := st.gateway.EnsureIndex(cmd.Context()); err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	namespace := util.UserNamespace(clearUser)
	if err := st.gateway.DeleteNamespace(cmd.Context(), namespace); err != nil {
		return fmt.Errorf("clearing namespace: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared indexed content for %s\n", clearUser)
	}
	return nil
}
