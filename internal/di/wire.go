//go:build wireinject
// +build wireinject

package di

import (
	"FundFlow/pkg/config"
	"FundFlow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideFlowRepository,
		ProvideResultPublisher,

		// Pipeline
		ProvideSources,
		ProvideWorkerPool,
		ProvideHub,
		ProvideCalculator,
		ProvideCollector,

		// Transport
		ProvideAPIHandler,
		ProvideWSHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
