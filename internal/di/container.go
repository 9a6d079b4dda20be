// Package di provides dependency injection configuration for the asset library.
package di

import (
	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// Services are lazy; each command invokes only what it needs.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Build pipeline
	do.Provide(injector, providers.ProvideTranslator)
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideBuilder)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Outer surfaces
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvidePublisher)

	return injector
}
