package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/di"
	"github.com/boothvault/asset-library/internal/logger"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "asset-library",
	Short: "Build a browsable library page from downloaded Booth items",
	Long: `asset-library scans a folder of downloaded Booth items and generates a
static, searchable library page. Builds are incremental: only folders that
changed since the last run are parsed, translated and thumbnailed again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(buildCmd, watchCmd, serveCmd, publishCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.New(logger.Config{})
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app is the container and logger shared by every subcommand.
type app struct {
	injector *do.RootScope
	log      *logger.Logger
}

// newApp loads the configuration from the command's flags and builds the
// container.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}
	injector := di.NewContainer(cfg)
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &app{injector: injector, log: log}, nil
}

// shutdown releases every service the command invoked.
func (a *app) shutdown() {
	if err := a.injector.Shutdown(); err != nil {
		a.log.Error("Shutdown error", "error", err)
	}
}

// invoke resolves a service from the container.
func invoke[T any](a *app) (T, error) {
	return do.Invoke[T](a.injector)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
