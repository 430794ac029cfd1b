package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OilPulse/internal/handler/ws"
	"OilPulse/internal/store"
	"OilPulse/pkg/config"
	xhttp "OilPulse/pkg/http"
	pkgkafka "OilPulse/pkg/kafka"
	applogger "OilPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	store      *store.Store
	hub        *ws.Hub
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies. consumer and kh are nil
// when the reload topic is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	st *store.Store,
	hub *ws.Hub,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	st.Subscribe(hub.Publish)
	return &App{
		cfg:        cfg,
		l:          l,
		store:      st,
		hub:        hub,
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
	}
}

// Run loads the artifacts, starts serving and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a failed first load still serves health checks; a later reload recovers
	loadCtx, cancel := context.WithTimeout(ctx, time.Minute)
	if _, err := a.store.Load(loadCtx); err != nil {
		a.l.Error("Initial artifact load failed, data endpoints report unavailable until reload", applogger.Error(err))
	}
	cancel()

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("Kafka consumer error", applogger.Error(err))
		} else {
			a.l.Info("Kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("HTTP server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("Shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// close push connections first; they are hijacked and outlive http shutdown
	a.hub.Close()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("HTTP shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("Kafka consumer stop error", applogger.Error(err))
		}
	}

	a.l.Info("Shutdown complete")
	return nil
}
