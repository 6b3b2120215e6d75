// Package cli implements the ragcore command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/app"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// shutdownTimeout bounds the final index save.
const shutdownTimeout = 30 * time.Second

var (
	version = "dev"

	configDir string
	verbose   bool

	// Services are built on first use. Tests assign them directly.
	ragService      driving.RAGService
	settingsService driving.SettingsService
	application     *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Ask questions about your documents",
	Long: `ragcore indexes local documents and answers questions about them.

Documents are split into overlapping chunks, embedded and stored in a vector
index. Questions retrieve the closest chunks and an LLM composes an answer
that cites its sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// A missing .env file is normal.
		_ = godotenv.Load() //nolint:errcheck // optional file
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline details to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragcore)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases resources on exit.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// requireRAG returns the RAG service, starting the application if needed.
func requireRAG(cmd *cobra.Command) (driving.RAGService, error) {
	if ragService != nil {
		return ragService, nil
	}

	a, err := app.New(commandContext(cmd), configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	application = a
	ragService = a.RAG
	settingsService = a.Settings

	for _, w := range a.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	return ragService, nil
}

// requireSettings returns the settings service without starting AI providers.
func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}

	a, err := app.NewSettingsOnly(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	settingsService = a.Settings
	return settingsService, nil
}

func shutdown() {
	if application == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	application.Close(ctx)
	application = nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
