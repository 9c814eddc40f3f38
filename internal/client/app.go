package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/config"
	handler "github.com/pylin/shelflife/internal/handler/http"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/service"
	"github.com/pylin/shelflife/internal/store"
)

const shutdownTimeout = 5 * time.Second

// App owns every long-lived instance of the sync core: the retry queue, the
// remote store adapter, the services, and the localhost HTTP server the
// desktop shell talks to.
type App struct {
	cfg    config.StructuredConfig
	logger *logger.Logger

	queue    store.QueueRepository
	remote   adapter.RemoteStore
	services *service.Services
	server   *http.Server
}

func NewApp(ctx context.Context, cfg config.StructuredConfig, log *logger.Logger) (*App, error) {
	queue, err := store.NewQueueRepository(ctx, cfg.Storage.Queue, log)
	if err != nil {
		return nil, fmt.Errorf("create retry queue: %w", err)
	}

	// Without a configured space there is no remote store; the core still
	// works fully offline with every mutation queued.
	var remote adapter.RemoteStore
	if cfg.Remote.SpaceID != "" {
		remote = adapter.NewContentfulAdapter(cfg.Remote)
	} else {
		log.Warn().Msg("no remote space configured, running offline")
	}

	services := service.NewServices(queue, remote, cfg, log)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddress,
		Handler:           handler.NewHandler(services, log).Init(),
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   log,
		queue:    queue,
		remote:   remote,
		services: services,
		server:   server,
	}, nil
}

// Run hydrates the collections, starts the background replay job, and serves
// the local API until the context is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	online := a.services.Bootstrap.LoadInitialData(ctx)
	a.logger.Info().Bool("online", online).Msg("initial data loaded")

	if a.remote != nil && a.cfg.Workers.ReplayInterval > 0 {
		a.services.ReplayJob.Start(ctx, a.cfg.Workers.ReplayInterval)
		defer a.services.ReplayJob.Stop()
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	a.logger.Info().Str("address", a.server.Addr).Msg("local api listening")

	select {
	case err := <-serveErr:
		a.closeQueue()
		return fmt.Errorf("serve local api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Err(err).Msg("error shutting down local api")
	}

	a.closeQueue()
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeQueue() {
	if err := a.queue.Close(); err != nil {
		a.logger.Err(err).Msg("error closing retry queue")
	}
}
