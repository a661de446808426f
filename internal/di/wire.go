//go:build wireinject
// +build wireinject

package di

import (
	"RegimeWatch/pkg/config"
	"RegimeWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Ingestion
		ProvideRingBuffer,
		ProvideIngestionQueue,
		ProvideConnector,
		ProvideBufferWriter,

		// Analysis
		ProvideEngine,
		ProvideClassifier,

		// Snapshot storage and alert channels
		ProvideSnapshotCache,
		ProvideSnapshotRepository,
		ProvideKafkaAlertPublisher,
		ProvideNotifiers,
		ProvideLimiter,
		ProvideAlertDispatcher,

		// Use cases
		ProvideMonitor,
		ProvideScheduler,

		// HTTP
		ProvideSnapshotHandler,
		ProvideHTTPServer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
