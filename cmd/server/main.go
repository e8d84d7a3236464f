package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/atelier-hq/atelier-backend/internal/config"
	"github.com/atelier-hq/atelier-backend/internal/httpapi"
	"github.com/atelier-hq/atelier-backend/internal/realtime"
	"github.com/atelier-hq/atelier-backend/internal/session"
	"github.com/atelier-hq/atelier-backend/internal/store"
)

const shutdownGrace = 10 * time.Second

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		persistence session.Store
		catalog     session.CanvasCatalog
	)
	if cfg.Persistence() {
		pg, err := store.Open(cfg.PostgresDSN, logger)
		if err != nil {
			logger.Fatal("open store", zap.Error(err))
		}
		if purged, err := pg.PurgeExpired(ctx); err != nil {
			logger.Warn("purge expired sessions", zap.Error(err))
		} else if purged > 0 {
			logger.Info("startup purge complete", zap.Int64("sessions", purged))
		}
		persistence, catalog = pg, pg
	} else {
		logger.Info("no POSTGRES_DSN set, running in-memory only")
	}

	bus := session.NewBus(logger)
	defer bus.Close()
	manager := session.NewManager(bus, persistence, catalog, logger)

	var (
		rt              httpapi.RealtimeHandlers
		lobbyTransports []realtime.RoomTransport
		gameTransports  []realtime.RoomTransport
	)
	if cfg.EnableWebsocket {
		lobbyWS := realtime.NewWebsocketTransport(realtime.ScopeLobby, manager, logger)
		gameWS := realtime.NewWebsocketTransport(realtime.ScopeGame, manager, logger)
		rt.LobbySocket = lobbyWS.Handler()
		rt.GameSocket = gameWS.Handler()
		lobbyTransports = append(lobbyTransports, lobbyWS)
		gameTransports = append(gameTransports, gameWS)
	}
	if cfg.EnableSSE {
		lobbySSE := realtime.NewSSETransport(realtime.ScopeLobby, manager, logger)
		gameSSE := realtime.NewSSETransport(realtime.ScopeGame, manager, logger)
		rt.LobbyStream = lobbySSE.Handler()
		rt.GameStream = gameSSE.Handler()
		rt.GameActions = gameSSE.ActionHandler()
		lobbyTransports = append(lobbyTransports, lobbySSE)
		gameTransports = append(gameTransports, gameSSE)
	}

	fanout := realtime.NewFanout(lobbyTransports, gameTransports, logger)
	rt.Health = fanout.HealthHandler()
	events := bus.Subscribe(256)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.SetupRoutes(manager, rt),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fanout.Run(gctx, events)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr),
			zap.Bool("websocket", cfg.EnableWebsocket), zap.Bool("sse", cfg.EnableSSE))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
