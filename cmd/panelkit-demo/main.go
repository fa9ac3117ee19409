// Command panelkit-demo serves the shopping-basket demo application.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jask/panelkit/internal/config"
	"github.com/jask/panelkit/internal/cycle"
	"github.com/jask/panelkit/internal/demo"
	"github.com/jask/panelkit/internal/httpd"
	"github.com/jask/panelkit/internal/session"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	store, err := buildStore(cfg.Session)
	if err != nil {
		log.Error("session store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	handler := &httpd.Handler{
		Runner: &cycle.Runner{
			Store:   store,
			NewRoot: demo.NewShop,
			Logger:  log,
		},
		Title:  "panelkit shop",
		Logger: log,
	}

	log.Info("listening", "addr", cfg.Listen, "backend", cfg.Session.Backend)
	if err := http.ListenAndServe(cfg.Listen, handler); err != nil {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}

func buildStore(cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(cfg.TTL), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir data dir: %w", err)
		}
		return session.NewSQLiteStore(cfg.SQLitePath, cfg.TTL)
	case "redis":
		return session.NewRedisStore(context.Background(), cfg.RedisURL, cfg.TTL)
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir data dir: %w", err)
		}
		return session.NewBoltStore(cfg.BoltPath, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
