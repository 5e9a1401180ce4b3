// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires configuration, logging, storage, the chat backend and
// the conversation store into a running application core.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SyDuc7421/chatbot-gui/internal/backend"
	"github.com/SyDuc7421/chatbot-gui/internal/config"
	"github.com/SyDuc7421/chatbot-gui/internal/conversation"
	"github.com/SyDuc7421/chatbot-gui/internal/export"
	"github.com/SyDuc7421/chatbot-gui/internal/logger"
	"github.com/SyDuc7421/chatbot-gui/internal/metrics"
	"github.com/SyDuc7421/chatbot-gui/internal/storage"
)

// Options controls optional parts of the bootstrap.
type Options struct {
	// WatchConfig reloads the global config when config files change.
	WatchConfig bool
}

// App is the assembled application core.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Adapter *storage.Adapter
	Client  *backend.Client
	Store   *conversation.Store

	watcher       *config.Watcher
	metricsServer *http.Server
	metricsAddr   net.Addr
}

// New builds an App from cfg. A nil cfg loads the global configuration.
// cfg becomes the global config so request-time URL lookups see reloads.
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Global()
	} else {
		config.SetGlobal(cfg)
	}

	log := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Log.Development,
	})

	driver, err := storage.ParseDriver(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	path, err := cfg.Storage.ResolvedPath()
	if err != nil {
		return nil, err
	}
	kv, err := storage.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", driver, err)
	}
	adapter := storage.NewAdapter(kv)

	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL: func() string {
			return config.Global().Backend.ChatBaseURL()
		},
		Timeout:    cfg.Backend.Timeout(),
		Attempts:   cfg.Backend.Attempts,
		RatePerSec: cfg.Backend.RatePerSec,
		Burst:      cfg.Backend.Burst,
	})

	storeOpts := conversation.DefaultOptions()
	storeOpts.DefaultFolder = cfg.Store.DefaultFolder

	a := &App{
		Config:  cfg,
		Log:     log,
		Adapter: adapter,
		Client:  client,
		Store:   conversation.NewStore(adapter, client, storeOpts),
	}

	if opts.WatchConfig {
		if err := a.startWatcher(); err != nil {
			log.Warn("config watcher disabled", zap.Error(err))
		}
	}
	if cfg.Metrics.Enabled {
		if err := a.startMetrics(cfg.Metrics.Addr); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	log.Info("chatbot core started",
		zap.String("storage", string(driver)),
		zap.String("path", path),
		zap.String("backend", cfg.Backend.ChatBaseURL()))
	return a, nil
}

func (a *App) startWatcher() error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	w, err := config.NewWatcher("", 0, func(cfg *config.Config) {
		a.Log.Info("backend URL now", zap.String("url", cfg.Backend.ChatBaseURL()))
	})
	if err != nil {
		return err
	}
	if err := w.Watch(); err != nil {
		_ = w.Close()
		return err
	}
	a.watcher = w
	return nil
}

func (a *App) startMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.metricsAddr = ln.Addr()

	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	a.Log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// MetricsAddr returns the metrics listener address, or nil when disabled.
func (a *App) MetricsAddr() net.Addr {
	return a.metricsAddr
}

// ErrConversationNotFound is returned by Export for unknown ids.
var ErrConversationNotFound = errors.New("conversation not found")

// Export writes conversation id to dir in the named format ("json",
// "markdown" or "html") and returns the written path.
func (a *App) Export(id, format, dir string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	conv, ok := a.Store.Conversation(id)
	if !ok {
		return "", ErrConversationNotFound
	}

	opts := export.DefaultOptions()
	opts.OutputDir = dir
	exporter, err := export.New(f, opts)
	if err != nil {
		return "", err
	}
	path, err := export.ToFile(&conv, exporter, opts)
	if err != nil {
		return "", err
	}
	a.Log.Info("exported conversation",
		zap.String("id", id),
		zap.String("format", string(f)),
		zap.String("path", path))
	return path, nil
}

// Close shuts everything down in reverse order of construction.
func (a *App) Close() error {
	var errs []error

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.metricsServer.Shutdown(ctx))
		cancel()
	}
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.Store.Close())
	errs = append(errs, a.Adapter.Close())
	errs = append(errs, logger.Close())

	return errors.Join(errs...)
}
