// Package providers contains dependency injection providers for the asset library.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"source", cfg.Library.SourcePath,
		"output", cfg.Library.OutputPath,
		"data", cfg.Library.DataPath,
	)

	return log, nil
}
