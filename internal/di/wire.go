//go:build wireinject
// +build wireinject

package di

import (
	"OilPulse/pkg/config"
	"OilPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideArtifactSource,
		ProvideCache,

		// Domain
		ProvideStore,
		ProvideDashboardUseCase,
		ProvideReloadHandler,

		// Transport
		ProvideDashboardHandler,
		ProvideHub,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
