package main

import (
	"github.com/spf13/cobra"

	"github.com/boothvault/asset-library/internal/build"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run one incremental build",
	Long: `Scans the source folder, rebuilds the records of new or changed items,
drops deleted ones and writes the library page, its data script and the
thumbnails to the output folder.`,
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
		return nil
	},
}

func logReport(a *app, report *build.Report) {
	a.log.Info("build complete",
		"run_id", report.RunID,
		"page", report.PagePath,
		"items", report.Items,
		"scanned", report.Scanned,
		"rebuilt", report.Dirty,
		"unchanged", report.Clean,
		"removed", report.Removed,
		"failed", report.Failed,
		"incomplete", report.Incomplete,
		"translations", report.TranslationCalls,
		"thumbnails_built", report.ThumbnailsBuilt,
		"thumbnails_reused", report.ThumbnailsReused,
		"duration", report.Duration,
	)
}
