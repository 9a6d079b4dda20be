package providers

import (
	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/build"
	"github.com/boothvault/asset-library/internal/classifier"
	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/ratelimit"
	"github.com/boothvault/asset-library/internal/relations"
	"github.com/boothvault/asset-library/internal/translate"
)

// translateBurst is the token bucket size of the translation limiter.
const translateBurst = 2

// TranslatorHandle wraps the translation backend with its rate limiter.
// Translator is nil when translation is disabled.
type TranslatorHandle struct {
	translate.Translator
	limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *TranslatorHandle) Shutdown() error {
	if h.limiter != nil {
		h.limiter.Stop()
	}
	return nil
}

// ProvideTranslator provides the configured translation backend.
func ProvideTranslator(i do.Injector) (*TranslatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Translate.Enabled {
		log.Debug("translation disabled by configuration")
		return &TranslatorHandle{}, nil
	}

	limiter := ratelimit.New(cfg.Translate.RatePerSec, translateBurst)
	t, err := translate.NewBackend(translate.BackendConfig{
		Backend:  cfg.Translate.Backend,
		Endpoint: cfg.Translate.Endpoint,
		Model:    cfg.Translate.Model,
		Timeout:  cfg.Translate.Timeout,
	}, limiter, log.Component("translate"))
	if err != nil {
		limiter.Stop()
		return nil, err
	}

	return &TranslatorHandle{Translator: t, limiter: limiter}, nil
}

// ProvideClassifier provides the adult classifier with the optional extra
// keywords. An unreadable keyword file leaves the built-in list in place.
func ProvideClassifier(i do.Injector) (*classifier.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	extra, err := classifier.LoadKeywords(cfg.Library.KeywordsPath)
	if err != nil {
		log.WithError(err).Warn("keyword file unreadable, using built-in keywords",
			"path", cfg.Library.KeywordsPath)
		extra = nil
	}
	c := classifier.New(extra...)
	log.Debug("adult classifier ready", "keywords", len(c.Keywords()))
	return c, nil
}

// ProvideResolver provides the avatar/accessory relation resolver. An
// unreadable body-model file leaves the built-in models in place.
func ProvideResolver(i do.Injector) (*relations.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := relations.DefaultOptions()
	if cfg.Relations.MinFragmentLen > 0 {
		opts.MinFragmentLen = cfg.Relations.MinFragmentLen
	}
	models, err := relations.LoadBodyModels(cfg.Relations.BodyModelsPath)
	if err != nil {
		log.WithError(err).Warn("body model file unreadable, using built-in models",
			"path", cfg.Relations.BodyModelsPath)
		models = nil
	}
	if len(models) > 0 {
		opts.BodyModels = models
	}
	return relations.New(opts), nil
}

// ProvideBuilder provides the build driver.
func ProvideBuilder(i do.Injector) (*build.Builder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	translator := do.MustInvoke[*TranslatorHandle](i)
	cls := do.MustInvoke[*classifier.Classifier](i)
	resolver := do.MustInvoke[*relations.Resolver](i)

	deps := build.Deps{
		Store:      storeHandle.Store,
		Index:      indexHandle.SearchIndex,
		Classifier: cls,
		Resolver:   resolver,
	}
	if translator.Translator != nil {
		deps.Translator = translator.Translator
	}

	return build.New(cfg, deps, log.Component("build"))
}
