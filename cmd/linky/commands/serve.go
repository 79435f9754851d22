// ABOUTME: Serve command starts the Linky HTTP API
// ABOUTME: Wires the pipeline, ensures the index, and runs until interrupted
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/linky/internal/server"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Linky HTTP API server",
		Long: `Start the Linky HTTP API server.

Serves ingestion (with SSE progress streaming), chat, document listing,
and namespace maintenance endpoints. The vector index is created on
startup if it does not exist.`,
		RunE: runServe,
	}

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	st, err := buildStack()
	if err != nil {
		return err
	}
	defer func() { _ = st.logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.gateway.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensuring index: %w", err)
	}

	srv := server.NewServer(
		st.seeder,
		st.assembler,
		st.responder,
		st.gateway,
		st.fetcher,
		st.tracker,
		st.cfg,
		st.logger,
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
