package di

import (
	"context"
	"fmt"
	"time"

	drepo "FundFlow/internal/domain/repository"
	"FundFlow/internal/handler/api"
	internalrepo "FundFlow/internal/repository"
	"FundFlow/internal/source/alphavantage"
	"FundFlow/internal/source/yahoo"
	"FundFlow/internal/usecase"
	"FundFlow/internal/websocket"
	"FundFlow/pkg/cache"
	pkgch "FundFlow/pkg/clickhouse"
	"FundFlow/pkg/config"
	pkgkafka "FundFlow/pkg/kafka"
	applogger "FundFlow/pkg/logger"
	"FundFlow/pkg/metrics"
	"FundFlow/pkg/server"
	"FundFlow/pkg/workerpool"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideFlowRepository creates the ClickHouse repository, optionally wrapped
// with the Redis latest-result cache.
func ProvideFlowRepository(client *pkgch.Client, cfg *config.Config, log *applogger.Logger) (drepo.FlowRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := internalrepo.NewClickHouseFlowRepository(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("flow repository: %w", err)
	}

	if !cfg.Cache.Enabled {
		return repo, nil
	}

	redisCache, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Host, cfg.Cache.Port),
		cache.WithRedisAuth(cfg.Cache.Password, cfg.Cache.DB),
		cache.WithRedisPrefix(cfg.Cache.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return internalrepo.NewCachedFlowRepository(repo, redisCache, cfg.Cache.LatestTTL, log), nil
}

// ProvideResultPublisher creates the Kafka audit publisher, or nil when the
// audit stream is disabled.
func ProvideResultPublisher(cfg *config.Config) (drepo.ResultPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideHub creates the live-feed hub.
func ProvideHub(repo drepo.FlowRepository, m drepo.Metrics, log *applogger.Logger) *websocket.Hub {
	return websocket.NewHub(repo, m, log)
}

// ProvideWorkerPool creates the computation pool.
func ProvideWorkerPool(cfg *config.Config) *workerpool.Pool {
	return workerpool.New(
		workerpool.WithWorkers(cfg.Compute.Workers),
		workerpool.WithQueueSize(cfg.Compute.QueueSize),
	)
}

// ProvideCalculator creates the flow calculator use case.
func ProvideCalculator(
	repo drepo.FlowRepository,
	pub drepo.ResultPublisher,
	hub *websocket.Hub,
	pool *workerpool.Pool,
	m drepo.Metrics,
	log *applogger.Logger,
) *usecase.Calculator {
	return usecase.NewCalculator(repo, pub, hub, pool, m, log)
}

// ProvideSources builds the adapter chain: primary first, then backups in
// failover order.
func ProvideSources(cfg *config.Config) ([]drepo.Source, error) {
	configs := append([]config.SourceConfig{cfg.Sources.Primary}, cfg.Sources.Backups...)

	sources := make([]drepo.Source, 0, len(configs))
	for _, sc := range configs {
		switch sc.Name {
		case "YAHOO_FINANCE":
			sources = append(sources, yahoo.New(sc))
		case "ALPHA_VANTAGE":
			sources = append(sources, alphavantage.New(sc))
		default:
			return nil, fmt.Errorf("unknown source %q", sc.Name)
		}
	}
	return sources, nil
}

// ProvideCollector creates the ingestion collector.
func ProvideCollector(
	sources []drepo.Source,
	repo drepo.FlowRepository,
	calc *usecase.Calculator,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Collector {
	return usecase.NewCollector(sources, repo, calc, m, log, cfg.Collector.Interval)
}

// ProvideAPIHandler creates the REST handler.
func ProvideAPIHandler(log *applogger.Logger, repo drepo.FlowRepository) *api.FlowsEchoHandler {
	return api.NewFlowsEchoHandler(log, repo)
}

// ProvideWSHandler creates the live-feed endpoint handler.
func ProvideWSHandler(hub *websocket.Hub, log *applogger.Logger, cfg *config.Config) *websocket.Handler {
	return websocket.NewHandler(hub, log, cfg.WebSocket.Path, cfg.WebSocket.WriteTimeout)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.Collector,
	pool *workerpool.Pool,
	repo drepo.FlowRepository,
	pub drepo.ResultPublisher,
	apiHandler *api.FlowsEchoHandler,
	wsHandler *websocket.Handler,
) *server.App {
	return server.New(cfg, log, collector, pool, repo, pub, apiHandler, wsHandler)
}
