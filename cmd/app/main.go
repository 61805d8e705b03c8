package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction_go/internal/app"
	"auction_go/internal/domain"
	"auction_go/internal/engine"
	"auction_go/internal/event"
	"auction_go/internal/infra"
	"auction_go/internal/infra/ws"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Background Media Sync
	go bootstrap.SyncMedia(ctx)

	// 5. Engine Store (The Hotpath Loop)
	event.Warmup()

	clock := domain.SystemClock
	rng := domain.NewRandSource(time.Now().UnixNano())
	notifier := infra.NewLogNotifier(slog.Default())

	store := engine.NewStore(cfg.Engine.InboxSize, clock, rng, notifier)

	catalog, err := bootstrap.Storage.LoadCatalog()
	if err != nil {
		slog.Error("❌ Failed to load catalog", slog.Any("error", err))
		os.Exit(1)
	}
	if err := store.Load(catalog); err != nil {
		slog.Error("❌ Failed to load listings", slog.Any("error", err))
		os.Exit(1)
	}

	go store.Run(ctx)
	slog.InfoContext(ctx, "✅ Store (Hotpath) started", slog.Int("listings", len(catalog)))

	// 6. Countdown Service
	countdown := engine.NewCountdownService(store, clock, cfg.CountdownInterval())

	// 7. Outbid Simulator
	if cfg.Simulation.Enabled {
		simulator := infra.NewOutbidSimulator(store, notifier, clock, rng,
			time.Duration(cfg.Simulation.MinIntervalSec)*time.Second,
			time.Duration(cfg.Simulation.MaxIntervalSec)*time.Second)
		simulator.Start(ctx)
		defer simulator.Stop()
		slog.InfoContext(ctx, "✅ Outbid simulator started")
	}

	// 8. Live View Server
	if cfg.Server.Enabled {
		hub := ws.NewHub(store, countdown, bootstrap.Storage, cfg.AnimationDuration(), cfg.FrameInterval())
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle("/ws", ws.NewHandler(hub))

		server := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
		go func() {
			slog.Info("✅ Live view server started", slog.String("addr", cfg.Server.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Live view server failed", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	slog.InfoContext(ctx, "✨ Auction Go fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	countdown.Wait()
	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}
