package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/husband-game/internal/config"
	"github.com/DoyleJ11/husband-game/internal/game"
	"github.com/DoyleJ11/husband-game/internal/httpapi"
	"github.com/DoyleJ11/husband-game/internal/hub"
	"github.com/DoyleJ11/husband-game/internal/i18n"
	"github.com/DoyleJ11/husband-game/internal/lobby"
	"github.com/DoyleJ11/husband-game/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   *storage.Store
		history interface {
			storage.Recorder
			storage.History
		} = storage.Discard
	)
	if cfg.DatabaseURL != "" {
		store, err = storage.Open(ctx, cfg.DatabaseURL, logger.Named("storage"))
		if err != nil {
			return err
		}
		if err := store.Migrate(ctx); err != nil {
			return multierr.Combine(err, store.Close())
		}
		history = store
	} else {
		logger.Warn("no database configured, game history is not kept")
	}

	text, err := i18n.New(cfg.Lang)
	if err != nil {
		return err
	}

	// Games outlive the signal context: they may still be running while the
	// server drains.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	h := hub.NewHub(base, cfg.Engine(), hub.WithLogger(logger.Named("hub")))
	board := lobby.NewLobby(base)
	g := game.New(base, h, board, text, cfg.Game(),
		game.WithLogger(logger.Named("game")),
		game.WithRecorder(history))

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Game:    g,
			Board:   board,
			History: history,
			Log:     logger.Named("http"),
			Origins: cfg.Origins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		logger.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.String("env", cfg.Env),
			zap.String("lang", text.Language().String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()

		if cfg.KeepAliveTimers {
			n, _ := h.ArmedTimers(sctx)
			logger.Info("waiting for running games", zap.Int("armed_timers", n))
			if err := h.WaitTimers(sctx, time.Second); err != nil {
				logger.Warn("games still running at shutdown", zap.Error(err))
			}
		}

		err := srv.Shutdown(sctx)
		h.Shutdown()
		cancelBase()
		if store != nil {
			err = multierr.Append(err, store.Close())
		}
		return err
	})

	if err := grp.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
