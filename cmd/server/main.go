package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "signal-relay/internal/app"
	httpx "signal-relay/internal/http"
	room "signal-relay/internal/room"
	signaling "signal-relay/internal/signaling"
	store "signal-relay/internal/store"
	ws "signal-relay/internal/ws"
	"signal-relay/pkg/ratelimit"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env, cfg.InstanceID)
	logger.Info("config.loaded",
		"env", cfg.Env, "addr", cfg.HTTPAddr,
		"journal", cfg.JournalEnabled(), "bus", cfg.BusEnabled(),
		"operatorAuth", cfg.AdminJWTSecret != "")

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Journal and bus outlive ctx so the disconnects of live peers still
	// reach them during shutdown
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	reg := room.NewRegistry()
	var engineOpts []signaling.Option
	hubOpts := ws.Options{
		SendBuffer:      cfg.WSSendBuffer,
		MaxMessageBytes: int64(cfg.WSMaxMessageBytes),
		Limiter:         ratelimit.New(cfg.WSRateMax, cfg.WSRateWindow),
	}

	// Postgres presence journal (optional)
	var history httpx.HistoryReader
	journalDone := make(chan struct{})
	if cfg.JournalEnabled() {
		pg, err := store.NewPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		journal := store.NewJournal(pg, cfg.InstanceID, logger)
		go func() {
			journal.Run(bgCtx)
			close(journalDone)
		}()
		engineOpts = append(engineOpts, signaling.WithJournal(journal))
		history = pg
	} else {
		close(journalDone)
	}

	// Redis bus for cross-instance fanout (optional)
	if cfg.BusEnabled() {
		bus, err := ws.NewRedisBus(ctx, cfg, logger)
		if err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer bus.Close()
		engineOpts = append(engineOpts, signaling.WithBus(bus))
		hubOpts.Fanout = bus
	}

	// WebSocket hub
	engine := signaling.NewEngine(reg, logger, engineOpts...)
	hub := ws.NewHub(logger, engine, hubOpts)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(bgCtx)
		close(hubDone)
	}()

	// HTTP + WS router
	router := httpx.NewRouter(ctx, cfg, logger, hub, reg, history)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	// hijacked websocket connections are not tracked by srv.Shutdown
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("hub.shutdown", "err", err)
	}

	// flush the leave records and user-left envelopes
	stopBackground()
	for _, done := range []chan struct{}{journalDone, hubDone} {
		select {
		case <-done:
		case <-shutdownCtx.Done():
		}
	}

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
