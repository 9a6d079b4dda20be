package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/store"
)

// recordsDir is the badger directory below the data path.
const recordsDir = "records"

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the record store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Library.DataPath, recordsDir)
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Debug("record store opened", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
