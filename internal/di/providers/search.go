package providers

import (
	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when search is disabled.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Debug("search index disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Library.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Debug("search index opened", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}
