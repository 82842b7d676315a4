package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/mudcore/internal/config"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/injector"
	"github.com/zeusync/mudcore/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.World.Boot(ctx, os.DirFS(cfg.ModulesPath)); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		// The world saves and hangs up on every session before Run returns.
		return app.World.Run(gctx)
	})
	group.Go(func() error {
		if err := app.Server.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Server.Stop(shutdownCtx); err != nil && !errors.Is(err, server.ErrServerNotRunning) {
			return err
		}
		return nil
	})

	app.Logger.Info("server started", log.String("listen_addr", cfg.ListenAddr), log.String("modules", cfg.ModulesPath))
	err = group.Wait()
	app.Logger.Info("server stopped")
	return err
}
