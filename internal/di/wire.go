//go:build wireinject
// +build wireinject

package di

import (
	"FXRisk/pkg/config"
	"FXRisk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideCalendar,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideSeriesStore,
		ProvidePolygonProvider,
		ProvideMarketData,
		ProvideResultPublisher,
		ProvidePricing,

		// Use cases
		ProvideRiskConeUseCase,
		ProvideBigMovesUseCase,
		ProvideIndicatorsUseCase,

		// Delivery
		ProvideKafkaConsumer,
		ProvideRefresher,
		ProvideRateLimiter,
		ProvideAnalyticsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
