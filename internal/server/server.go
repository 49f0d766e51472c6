package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/lanchat/internal/history"
)

// App assembles the relay: the history store, the hub that owns it, the
// handlers, and the HTTP server.
type App struct {
	Config *Config
	Store  *history.Store
	Hub    *Hub
	Server *http.Server
	log    *slog.Logger
}

// NewApp wires a relay from cfg. Nothing is started until Run.
func NewApp(log *slog.Logger, cfg *Config) *App {
	store := history.New(cfg.HistoryCapacity)
	hub := NewHub(log, store, cfg)
	handlers := NewHandlers(log, hub, cfg)
	return &App{
		Config: cfg,
		Store:  store,
		Hub:    hub,
		Server: CreateServer(cfg.Port, SetupRoutes(handlers)),
		log:    log,
	}
}

// Run starts the hub and the HTTP server, then blocks until ctx is done or the
// server fails. Both are shut down before Run returns.
func (a *App) Run(ctx context.Context) error {
	go a.Hub.Run()

	errChan := make(chan error, 1)
	go func() {
		errChan <- StartServer(a.log, a.Server)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
	case serveErr = <-errChan:
		if serveErr != nil {
			serveErr = fmt.Errorf("http server: %w", serveErr)
		}
	}

	if err := ShutdownServer(a.log, a.Server, a.Config.ShutdownTimeout); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.Hub.Shutdown(a.Config.ShutdownTimeout); err != nil && serveErr == nil {
		serveErr = fmt.Errorf("hub shutdown: %w", err)
	}
	return serveErr
}
