package translate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/boothvault/asset-library/internal/ratelimit"
)

// BackendConfig selects and configures a Translator.
type BackendConfig struct {
	Backend  string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// NewBackend builds the Translator named by cfg.Backend.
func NewBackend(cfg BackendConfig, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) (Translator, error) {
	switch cfg.Backend {
	case "", "google":
		return NewGoogle(cfg.Endpoint, cfg.Timeout, limiter, logger)
	case "ollama":
		return NewOllama(cfg.Endpoint, cfg.Model, cfg.Timeout, limiter, logger)
	default:
		return nil, fmt.Errorf("unknown translation backend %q", cfg.Backend)
	}
}
