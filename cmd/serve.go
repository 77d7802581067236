package cmd

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixedit/internal/config"
	"github.com/AnyUserName/pixedit/internal/executor"
	"github.com/AnyUserName/pixedit/internal/server"
)

var (
	serveAddr   string
	serveConfig string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the image processing HTTP service",
	Long: `Starts the HTTP service consumed by the browser editor:
POST /api/process takes a multipart image + edits descriptor and returns
the processed result as a data URL envelope. /api/sessions opens stateful
editing sessions with undo/redo history and save checkpoints.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, executor.New(), log)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("shut down")
	return nil
}
