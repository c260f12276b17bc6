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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishfund/internal/api"
	"github.com/Kerhoff/wishfund/internal/auth"
	"github.com/Kerhoff/wishfund/internal/config"
	"github.com/Kerhoff/wishfund/internal/handlers"
	"github.com/Kerhoff/wishfund/internal/metrics"
	"github.com/Kerhoff/wishfund/internal/repository"
	"github.com/Kerhoff/wishfund/internal/repository/memory"
	"github.com/Kerhoff/wishfund/internal/repository/postgres"
	"github.com/Kerhoff/wishfund/internal/service"
	"github.com/Kerhoff/wishfund/internal/telegram"
	"github.com/Kerhoff/wishfund/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.WithField("storage", cfg.StorageDriver).Info("Starting wishfund...")

	store, err := openStore(cfg, l)
	if err != nil {
		l.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Service layer
	svc := service.New(store, l, m,
		auth.NewHasher(cfg.BcryptCost),
		auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		service.Options{StrictOfferUpdate: cfg.StrictOfferUpdate},
	)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP API
	apiServer := api.NewServer(svc, l, m, cfg.CORSAllowedOrigins)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go serve(httpServer, "HTTP server", l)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go serve(metricsServer, "Metrics server", l)

	// Telegram bot is optional
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}

		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l, service.TopWishesLimit, service.LastWishesLimit))
		bot.RegisterCommand("top", handlers.NewTopHandler(svc.Wishes, l))
		bot.RegisterCommand("last", handlers.NewLastHandler(svc.Wishes, l))
		bot.RegisterCommand("wish", handlers.NewWishHandler(svc.Wishes, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	} else {
		l.Info("TELEGRAM_TOKEN not set, bot disabled")
	}

	l.Info("wishfund started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	l.Info("Shutting down HTTP servers...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("Metrics server shutdown error: %v", err)
	}

	l.Info("wishfund stopped")
}

func openStore(cfg *config.Config, l *logrus.Logger) (repository.Store, error) {
	if cfg.StorageDriver == config.StorageMemory {
		l.Warn("Using in-memory store, data will not survive a restart")
		return memory.NewStore(), nil
	}

	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return postgres.NewStore(db.DB), nil
}

func serve(srv *http.Server, name string, l *logrus.Logger) {
	l.Infof("%s listening on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Errorf("%s error: %v", name, err)
		os.Exit(1)
	}
}
