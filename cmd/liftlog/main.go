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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"tailscale.com/tsnet"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/coordinator"
	"github.com/claude/liftlog/internal/localstore"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/persist"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/workout"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	log.Info("LiftLog starting", "version", Version)

	ctx := context.Background()

	// Remote session store (optional)
	var db *storage.DB
	if cfg.Database.Enabled() {
		dsn := cfg.Database.DSN()
		version, err := storage.RunMigrations(dsn, "migrations")
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "version", version)

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err = storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")
	} else if *migrateOnly {
		log.Error("migrate-only requires a database host")
		os.Exit(1)
	}

	// Local store
	local, err := localstore.Open(cfg.Local.Path)
	if err != nil {
		log.Error("failed to open local store", "path", cfg.Local.Path, "error", err)
		os.Exit(1)
	}
	defer local.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("liftlog", "", reg)

	// Core
	clk := clock.Real()
	identity := auth.New()

	var remote persist.RemoteStore
	var repo catalog.Repo = local
	if db != nil {
		remote = db
		repo = db
	}

	gw := persist.New(local, remote, identity, clk, log, m, persist.Options{
		Throttle: cfg.Workout.SaveThrottle,
		Periodic: cfg.Workout.PeriodicSave,
	})
	defer gw.Close()

	co := coordinator.New(gw, clk, coordinator.LogNotifier{Log: log}, log, m, coordinator.Options{
		Policy: workout.Policy{
			SetRest:      cfg.Workout.SetRest,
			ExerciseRest: cfg.Workout.ExerciseRest,
		},
		TickInterval: cfg.Workout.TickInterval,
	})
	exercises := catalog.New(repo, identity, clk, log)

	// API-key mode acts for one configured user. Sign it in before the
	// restore so its remote workout can be resumed.
	if cfg.Auth.APIKey != "" && cfg.Auth.User != "" {
		identity.SignIn(cfg.Auth.User)
	}

	exercises.OnChange(func(_ string, list []models.Exercise) { co.SyncExercises(list) })
	identity.OnChange(func(userID string, signedIn bool) {
		log.Info("identity changed", "user", userID, "signed_in", signedIn)
		co.IdentityChanged(signedIn)
	})

	co.Restore(ctx)
	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()
	go co.Run(runCtx)

	// MCP over streamable HTTP
	mcpSrv := mcp.New(mcp.Local{Workout: co, Catalog: exercises}, Version, log)

	deps := server.Deps{
		Workout:  co,
		Catalog:  exercises,
		Auth:     identity,
		DB:       db,
		Metrics:  m,
		Gatherer: reg,
		MCP:      mcpserver.NewStreamableHTTPServer(mcpSrv),
		APIKey:   cfg.Auth.APIKey,
		APIUser:  cfg.Auth.User,
		Log:      log,
	}

	// Listen on the tailnet or plain TCP
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
		deps.Tailscale = lc

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

	// Request contexts end on shutdown so open event streams close.
	baseCtx, cancelBase := context.WithCancel(ctx)
	httpSrv := &http.Server{
		Handler:     server.New(deps),
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	httpSrv.RegisterOnShutdown(cancelBase)

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
	stopRun()
	gw.Close()
	log.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
