package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/lingopod/engine/internal/api"
	"github.com/lingopod/engine/internal/backend"
	"github.com/lingopod/engine/internal/config"
	"github.com/lingopod/engine/internal/engine"
	"github.com/lingopod/engine/internal/feed"
	"github.com/lingopod/engine/internal/logger"
	"github.com/lingopod/engine/internal/store"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	eng := do.MustInvoke[*engine.Engine](i)
	client := do.MustInvoke[*backend.Client](i)
	feeds := do.MustInvoke[*feed.Parser](i)
	cache := do.MustInvoke[*store.TranscriptCache](i)

	handler := api.NewServer(eng, client, feeds, cache, log.Logger)

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
