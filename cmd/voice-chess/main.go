package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/builder"
	appcfg "github.com/kapu/voice-chess-go/internal/config"
	"github.com/kapu/voice-chess-go/internal/obslog"
	"github.com/kapu/voice-chess-go/internal/transport/httpapi"
)

func main() {
	_ = godotenv.Load()
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer logger.Sync()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	deps, err := builder.Build(cfg, logger)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	handler := httpapi.NewHandler(deps.Store, deps.Resolver, deps.Speaker, deps.Catalog, cfg.DefaultSkillLevel, logger)
	app := httpapi.NewFiberApp(handler)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
}
