// Package di provides dependency injection configuration for the player engine.
package di

import (
	"github.com/samber/do/v2"

	"github.com/lingopod/engine/internal/config"
	"github.com/lingopod/engine/internal/di/providers"
	"github.com/lingopod/engine/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage tiers
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideTranscriptCache)

	// Remote collaborators
	do.Provide(injector, providers.ProvideArchiveFetcher)
	do.Provide(injector, providers.ProvideBackendClient)
	do.Provide(injector, providers.ProvideAssetResolver)

	// Engine and ingestion
	do.Provide(injector, providers.ProvideEngine)
	do.Provide(injector, providers.ProvideFeedParser)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of the full graph.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
