package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FXRisk/pkg/config"
	xhttp "FXRisk/pkg/http"
	applogger "FXRisk/pkg/logger"
)

// Consumer is a background message consumer.
type Consumer interface {
	Start() error
	Stop(ctx context.Context) error
}

// Scheduler is a background periodic job.
type Scheduler interface {
	Start() error
	Stop(ctx context.Context) error
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   Consumer
	scheduler  Scheduler
	closers    []namedCloser
}

// New creates a new App instance.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, httpServer: httpServer}
}

func (a *App) SetConsumer(c Consumer) { a.consumer = c }

func (a *App) SetRefresher(s Scheduler) { a.scheduler = s }

// AddCloser registers a resource released on shutdown, in registration order.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and shuts them down once ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			_ = a.shutdown()
			return err
		}
		a.l.Info("kafka consumer started")
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(); err != nil {
			a.l.Error("scheduler start error", applogger.Error(err))
			_ = a.shutdown()
			return err
		}
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then releases infrastructure clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(ctx); err != nil {
			a.l.Warn("scheduler stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", nc.name, err))
		}
	}

	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
