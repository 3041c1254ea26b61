package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/catalog"
	"github.com/chazu/steelframe/pkg/config"
	"github.com/chazu/steelframe/pkg/logging"
	"github.com/chazu/steelframe/pkg/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("STEELFRAME_CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "steelframe:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.IsDevelopment(),
		Fields:      map[string]string{"service": "steelframe"},
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	reg := catalog.Default()
	if cfg.Catalog.File != "" {
		if reg, err = catalog.LoadYAML(reg, cfg.Catalog.File); err != nil {
			return err
		}
		logger.Info("Loaded profile catalog", zap.String("file", cfg.Catalog.File), zap.Int("profiles", reg.Len()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.Path, logger)
	if err == nil && cfg.Store.Seed {
		var seeded bool
		if seeded, err = store.SeedDefaults(ctx, s); seeded {
			logger.Info("Seeded default templates", zap.String("template", store.DemoTemplateID))
		}
	}
	cancel()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer s.Close()

	a, err := NewApp(Deps{Config: cfg, Logger: logger, Registry: reg, Store: s})
	if err != nil {
		return err
	}
	app := NewServer(a)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Steelframe server starting",
		zap.String("addr", addr),
		zap.String("kernel", a.kernelName),
		zap.String("store", cfg.Store.Driver))
	return app.Listen(addr)
}
