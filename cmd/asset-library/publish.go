package main

import (
	"github.com/spf13/cobra"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Mirror the output folder to an S3 compatible bucket",
	Long: `Uploads new and changed files of the output folder under --publish-prefix
and removes remote objects under that prefix that no longer exist locally.
Run build first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		cfg, err := invoke[*config.Config](a)
		if err != nil {
			return err
		}
		publisher, err := invoke[*publish.Publisher](a)
		if err != nil {
			return err
		}

		_, err = publisher.Publish(ctx, cfg.Library.OutputPath)
		return err
	},
}
