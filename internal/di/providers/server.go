package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/api"
	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
)

const (
	apiRequestsPerSecond = 20
	apiBurst             = 40
)

// HTTPServerHandle wraps http.Server with Shutdownable. Errors receives the
// listen error if the server stops on its own.
type HTTPServerHandle struct {
	*http.Server
	api    *api.Server
	Errors <-chan error
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(h.Server.Shutdown(ctx), h.api.Shutdown())
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	handler := api.NewServer(storeHandle.Store, indexHandle.SearchIndex, api.Options{
		OutputDir:         cfg.Library.OutputPath,
		IndexFile:         cfg.Library.OutputFile,
		RequestsPerSecond: apiRequestsPerSecond,
		Burst:             apiBurst,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			errs <- err
		}
		close(errs)
	}()

	return &HTTPServerHandle{Server: srv, api: handler, Errors: errs}, nil
}
