package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"linkreg/internal/config"
	"linkreg/internal/core"
	httpapi "linkreg/internal/http"
	"linkreg/internal/id"
	"linkreg/internal/metrics"
	"linkreg/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App wires config, storage, core service, metrics, and the HTTP router.
type App struct {
	Cfg      config.Config
	Log      *slog.Logger
	Store    core.Store
	Service  *core.Service
	Registry *prometheus.Registry
	Router   *gin.Engine
}

// New builds a fully-wired application instance.
func New(_ context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	st, err := store.Open(store.Backend(cfg.Store), cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := core.NewService(st, id.NewGenerator(), cfg.CodeLength, metrics.New(reg))

	router := httpapi.NewRouter(svc, httpapi.Options{
		BaseURL:  cfg.BaseURL,
		Gatherer: reg,
		Log:      log,
	})

	return &App{
		Cfg:      cfg,
		Log:      log,
		Store:    st,
		Service:  svc,
		Registry: reg,
		Router:   router,
	}, nil
}

// Addr returns the HTTP listen address, e.g. ":8080".
func (a *App) Addr() string {
	return fmt.Sprintf(":%d", a.Cfg.Port)
}

// Start runs the HTTP server and the background sweeper until ctx is done,
// then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		NewSweeper(a.Service, a.Cfg.CleanupInterval, a.Log).Run(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("shutdown: %w", err)
	}
	wg.Wait()
	return serveErr
}

// Close releases resources held by the store.
func (a *App) Close() error {
	return a.Store.Close()
}
