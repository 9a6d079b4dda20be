package main

import (
	"github.com/spf13/cobra"

	"github.com/boothvault/asset-library/internal/build"
	"github.com/boothvault/asset-library/internal/di/providers"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build, then rebuild whenever the source folder changes",
	Long: `Runs one build and keeps watching the source folder. A burst of changes
triggers a single rebuild once the folder has been quiet for the settle delay
(--watch-settle).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		builder, err := invoke[*build.Builder](a)
		if err != nil {
			return err
		}
		report, err := builder.Run(ctx)
		if err != nil {
			return err
		}
		logReport(a, report)

		if _, err := invoke[*providers.FileWatcherHandle](a); err != nil {
			return err
		}

		<-ctx.Done()
		a.log.Info("Stopping watcher...")
		return nil
	},
}
