package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/repbuddy/internal/config"
	"github.com/claude/repbuddy/internal/ingest/alpha"
	"github.com/claude/repbuddy/internal/mcp"
	"github.com/claude/repbuddy/internal/server"
	"github.com/claude/repbuddy/internal/session"
	"github.com/claude/repbuddy/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and REPBUDDY_* env when empty)")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepBuddy starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.StoreDSN()
	if err := storage.RunMigrations(cfg.Storage.Driver, dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "driver", cfg.Storage.Driver)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Open store
	ctx := context.Background()
	kv, err := storage.Open(ctx, cfg.Storage.Driver, dsn)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(kv)
	defer store.Close()
	log.Info("store opened")

	sessions := session.NewManager(store,
		session.WithRestPresets(cfg.Session.RestPresets),
		session.WithLogger(log),
	)
	defer sessions.Close()

	alphaProvider := alpha.NewProvider(store, log, false)

	// Create server
	srv := server.New(store, sessions, alphaProvider, cfg.Auth.APIKey, log)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcp.New(store, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
