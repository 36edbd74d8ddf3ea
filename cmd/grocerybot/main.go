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

	"github.com/Kerhoff/GroceryboT/internal/api"
	"github.com/Kerhoff/GroceryboT/internal/config"
	"github.com/Kerhoff/GroceryboT/internal/handlers"
	"github.com/Kerhoff/GroceryboT/internal/metrics"
	"github.com/Kerhoff/GroceryboT/internal/service"
	"github.com/Kerhoff/GroceryboT/internal/telegram"
	"github.com/Kerhoff/GroceryboT/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting GroceryboT...")

	m := metrics.New()
	svc := service.New(l, m, cfg.SessionTTL, nil, service.WithMaxSessions(cfg.MaxSessions))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Evict idle lists
	go svc.StartJanitor(ctx, cfg.JanitorInterval)

	// HTTP server for the web UI and JSON API
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	// Prometheus metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("Metrics server listening on :%s", cfg.PrometheusPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	// Telegram bot
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))

		bot.RegisterCommand("add", handlers.NewAddHandler(svc, l))
		bot.RegisterCommand("list", handlers.NewListHandler(svc, l))
		bot.RegisterCommand("total", handlers.NewTotalHandler(svc, l))
		bot.RegisterCommand("price", handlers.NewPriceHandler(svc, l))
		bot.RegisterCommand("qty", handlers.NewQuantityHandler(svc, l))
		bot.RegisterCommand("bought", handlers.NewBoughtHandler(svc, l))
		bot.RegisterCommand("unbought", handlers.NewUnboughtHandler(svc, l))
		bot.RegisterCommand("remove", handlers.NewRemoveHandler(svc, l))
		bot.RegisterCommand("clear", handlers.NewClearHandler(svc, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		l.Info("TELEGRAM_TOKEN is not set, Telegram bot disabled")
	}

	l.Info("GroceryboT started successfully")

	<-ctx.Done()

	l.Info("Shutting down servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Warnf("HTTP server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.Warnf("Metrics server shutdown: %v", err)
	}

	l.Info("GroceryboT stopped")
}
