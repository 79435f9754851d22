// ABOUTME: Root CLI command and global flags for Linky
// ABOUTME: Wires subcommands and the verbose/quiet/format persistent flags
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██╗     ██╗███╗   ██╗██╗  ██╗██╗   ██╗
██║     ██║████╗  ██║██║ ██╔╝╚██╗ ██╔╝
██║     ██║██╔██╗ ██║█████╔╝  ╚████╔╝
██║     ██║██║╚██╗██║██╔═██╗   ╚██╔╝
███████╗██║██║ ╚████║██║  ██╗   ██║
╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝   ╚═╝`

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linky",
		Short: "Ingest web pages and chat with their content",
		Long: banner + `

Linky fetches web pages, splits them into chunks, embeds them, and
stores them in a vector index. Ask questions and Linky answers from
the content you have ingested.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, json, text)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewClearCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
