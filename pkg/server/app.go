package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "FundFlow/internal/domain/repository"
	"FundFlow/internal/handler/api"
	"FundFlow/internal/usecase"
	"FundFlow/internal/websocket"
	"FundFlow/pkg/config"
	xhttp "FundFlow/pkg/http"
	applogger "FundFlow/pkg/logger"
	"FundFlow/pkg/workerpool"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.Collector
	pool       *workerpool.Pool
	repo       drepo.FlowRepository
	pub        drepo.ResultPublisher
	apiHandler *api.FlowsEchoHandler
	wsHandler  *websocket.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.Collector,
	pool *workerpool.Pool,
	repo drepo.FlowRepository,
	pub drepo.ResultPublisher,
	apiHandler *api.FlowsEchoHandler,
	wsHandler *websocket.Handler,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		collector:  collector,
		pool:       pool,
		repo:       repo,
		pub:        pub,
		apiHandler: apiHandler,
		wsHandler:  wsHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pool.Start(ctx)

	if a.cfg.Collector.Enabled {
		a.collector.Start(ctx)
	} else {
		a.log.Warn("collector disabled by configuration")
	}

	a.httpServer = xhttp.NewServer(
		xhttp.Combine(a.apiHandler, a.wsHandler),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestLogging(a.log, time.Second),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("ws_path", a.cfg.WebSocket.Path))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Collector.Enabled {
		a.collector.Stop()
	}

	// Drain in-flight computations before taking the pool down.
	a.pool.Wait()
	a.pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if err := a.repo.Close(); err != nil {
		a.log.Warn("repository close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
