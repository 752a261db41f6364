// Package providers contains dependency injection providers for the player engine.
package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/lingopod/engine/internal/archive"
	"github.com/lingopod/engine/internal/asset"
	"github.com/lingopod/engine/internal/backend"
	"github.com/lingopod/engine/internal/config"
	"github.com/lingopod/engine/internal/engine"
	"github.com/lingopod/engine/internal/feed"
	"github.com/lingopod/engine/internal/logger"
	"github.com/lingopod/engine/internal/store"
)

const shutdownTimeout = 10 * time.Second

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting player engine",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"cache_path", cfg.Cache.Path,
	)

	return log, nil
}

// StoreHandle wraps the device cache store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the device-local badger store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.New(cfg.Cache.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: db}, nil
}

// ProvideTranscriptCache provides the transcript cache over the device store.
func ProvideTranscriptCache(i do.Injector) (*store.TranscriptCache, error) {
	handle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return store.NewTranscriptCache(handle.Store, log.Logger), nil
}

// ProvideArchiveFetcher provides the CDN archive tier reader.
func ProvideArchiveFetcher(i do.Injector) (*archive.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return archive.NewFetcher(cfg.Archive.CDNBaseURL, log.Logger,
		archive.WithTimeout(cfg.Archive.Timeout),
		archive.WithOutageThreshold(cfg.Archive.OutageThreshold),
	), nil
}

// ProvideBackendClient provides the managed backend action client.
func ProvideBackendClient(i do.Injector) (*backend.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backend.NewClient(cfg.Backend.BaseURL, log.Logger,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithUploadURL(cfg.Backend.UploadURL),
	), nil
}

// ProvideAssetResolver provides the audio asset resolver.
func ProvideAssetResolver(i do.Injector) (*asset.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*backend.Client](i)
	cache := do.MustInvoke[*store.TranscriptCache](i)

	return asset.NewResolver(client, cache, log.Logger,
		asset.WithMaxURLLength(cfg.Backend.MaxAudioURLLength),
	), nil
}

// ProvideEngine provides the transcript orchestrator.
func ProvideEngine(i do.Injector) (*engine.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cache := do.MustInvoke[*store.TranscriptCache](i)
	fetcher := do.MustInvoke[*archive.Fetcher](i)
	client := do.MustInvoke[*backend.Client](i)
	resolver := do.MustInvoke[*asset.Resolver](i)

	return engine.New(cache, fetcher, client, resolver, log.Logger,
		engine.WithProduction(cfg.App.IsProduction()),
		engine.WithMaxURLLength(cfg.Backend.MaxAudioURLLength),
	), nil
}

// ProvideFeedParser provides the podcast feed parser.
func ProvideFeedParser(i do.Injector) (*feed.Parser, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return feed.NewParser(log.Logger), nil
}
