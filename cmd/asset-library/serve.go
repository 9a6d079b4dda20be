package main

import (
	"github.com/spf13/cobra"

	"github.com/boothvault/asset-library/internal/di/providers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated library and its JSON API",
	Long: `Serves the output folder and a read-only JSON API over the record store:
/health, /api/v1/items, /api/v1/items/{id} and /api/v1/search.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		srv, err := invoke[*providers.HTTPServerHandle](a)
		if err != nil {
			return err
		}

		select {
		case err, ok := <-srv.Errors:
			if ok {
				return err
			}
		case <-ctx.Done():
			a.log.Info("Shutting down server gracefully...")
		}
		return nil
	},
}
