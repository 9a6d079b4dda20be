package providers

import (
	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/publish"
)

// ProvidePublisher provides the bucket publisher. The publish settings are
// validated here so other commands never need them.
func ProvidePublisher(i do.Injector) (*publish.Publisher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}

	client, err := publish.NewClient(cfg.Publish)
	if err != nil {
		return nil, err
	}

	return publish.New(client, cfg.Publish, log.Component("publish")), nil
}
