package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"profile-service/internal/client"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	storeOrigin string
	timeout     time.Duration
	verbose     bool

	logger *zap.Logger
	store  *client.StoreClient
)

var rootCmd = &cobra.Command{
	Use:   "cardctl",
	Short: "Generate, list and export Arcians profile cards",
	Long: `cardctl talks to a running profile store.

The store origin comes from --store or ARCIANS_STORE and is used for every
request and for the absolute photo URLs saved with profiles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		cfg.DisableStacktrace = true
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		store = client.NewStoreClient(storeOrigin, &http.Client{Timeout: timeout})
		logger.Debug("store configured", zap.String("origin", store.Origin()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func defaultStore() string {
	if v := os.Getenv("ARCIANS_STORE"); v != "" {
		return v
	}
	return "http://localhost:8001"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeOrigin, "store", defaultStore(), "profile store origin (env ARCIANS_STORE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "timeout for each store request")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(generateCmd, galleryCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
