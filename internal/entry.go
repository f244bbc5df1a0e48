// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/bluetooth"

	"github.com/starford/wristlog/internal/api"
	"github.com/starford/wristlog/internal/ble"
	"github.com/starford/wristlog/internal/capture"
	"github.com/starford/wristlog/internal/daily"
	"github.com/starford/wristlog/internal/device"
	"github.com/starford/wristlog/internal/index"
	"github.com/starford/wristlog/internal/mcpserver"
	"github.com/starford/wristlog/internal/protocol"
	"github.com/starford/wristlog/internal/recordservice"
	"github.com/starford/wristlog/internal/session"
	"github.com/starford/wristlog/internal/sse"
	"github.com/starford/wristlog/internal/storage"
	"github.com/starford/wristlog/internal/telemetry"
)

const reconnectDelay = 5 * time.Second

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// MCP speaks over stdout, so logs go to stderr in that mode.
	var out io.Writer = os.Stdout
	if app.mode == ModeMCP {
		out = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("capture_path", cfg.Capture.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the record directory and its partitions exist.
	for _, p := range index.Partitions {
		if err := os.MkdirAll(filepath.Join(cfg.Store.Path, p), 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Run initial sync.
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	if app.mode == ModeMCP {
		return mcpserver.New(recordservice.NewService(store, db, nil, nil)).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Watch state and command link exist only when a watch is driven.
	var (
		state *device.State
		link  *watchLink
		watch recordservice.Watch
	)
	if app.mode == ModeRun {
		state = device.NewState(cfg.Device.Name)
		link = &watchLink{}
		watch = link
	}

	// Build API service and router.
	svc := recordservice.NewService(store, db, state, watch)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, cfg.Capture.Path)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, db, store, cfg.Store.Path, logger, func(kind, key string) {
			broker.Publish(sse.Event{Type: sse.TypeIndexUpdated, Data: map[string]string{"kind": kind, "key": key}})
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Drive the watch.
	if app.mode == ModeRun {
		c := &connector{
			device: cfg.Device,
			store:  store,
			state:  state,
			link:   link,
			events: broker,
			logger: logger,
		}
		if cfg.Capture.Path != "" {
			w, err := capture.Create(cfg.Capture.Path)
			if err != nil {
				return fmt.Errorf("init capture: %w", err)
			}
			defer w.Close()
			c.capture = w
		}
		g.Go(func() error {
			return c.run(gCtx, bluetooth.DefaultAdapter)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// connector keeps a session with the watch alive, reconnecting after failures.
type connector struct {
	device  DeviceConfig
	store   storage.Provider
	state   *device.State
	link    *watchLink
	events  *sse.Broker
	capture *capture.Writer
	logger  *slog.Logger
}

func (c *connector) run(ctx context.Context, adapter *bluetooth.Adapter) error {
	key, err := c.device.Key()
	if err != nil {
		return fmt.Errorf("device: pair key: %w", err)
	}
	ingestor := &telemetry.Ingestor{
		HeartRate: daily.NewStore(daily.HeartRate, c.store),
		Steps:     daily.NewStore(daily.Steps, c.store),
	}

	for {
		if err := c.connectOnce(ctx, adapter, key, ingestor); err != nil {
			c.logger.Warn("watch session ended", slog.String("error", err.Error()))
			c.state.SetError(err.Error())
		}
		c.events.Publish(sse.Event{Type: sse.TypeDevice, Data: c.state.Snapshot()})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *connector) connectOnce(ctx context.Context, adapter *bluetooth.Adapter, key protocol.PairKey, ingestor *telemetry.Ingestor) error {
	conn, err := ble.Dial(ctx, adapter, ble.Options{
		Name:           c.device.Name,
		Address:        c.device.Address,
		ScanTimeout:    c.device.ScanTimeout,
		ConnectTimeout: c.device.ConnectTimeout,
	}, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Warn("disconnect failed", slog.String("error", err.Error()))
		}
		c.state.SetConnected(false, "")
	}()

	c.state.SetConnected(true, conn.Address())
	c.state.SetError("")

	s := &session.Session{
		Transport:     conn,
		Ingestor:      ingestor,
		State:         c.state,
		Events:        c.events,
		Logger:        c.logger,
		PairKey:       key,
		SyncOnConnect: c.device.SyncOnConnect,
		KeepAlive:     c.device.KeepAlive,
	}
	if c.capture != nil {
		tap := &capture.Tap{Transport: conn, W: c.capture, Logger: c.logger}
		s.Transport = tap
		s.Recorder = tap
	}

	c.link.set(s)
	defer c.link.set(nil)

	return s.Run(ctx)
}
