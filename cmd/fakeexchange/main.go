package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/efreitasn/fakeexchange/internal/config"
	"github.com/efreitasn/fakeexchange/internal/domain"
	"github.com/efreitasn/fakeexchange/internal/engine"
	"github.com/efreitasn/fakeexchange/internal/handler"
	"github.com/efreitasn/fakeexchange/internal/publisher"
	"github.com/efreitasn/fakeexchange/internal/service"
	"github.com/efreitasn/fakeexchange/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	pairs, err := domain.NewPairRegistry(cfg.Pairs...)
	if err != nil {
		logger.Error("invalid pairs", slog.String("error", err.Error()))
		os.Exit(1)
	}

	balanceStore, err := openBalanceStore(cfg)
	if err != nil {
		logger.Error("failed to open balance store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer balanceStore.Close()

	sink, err := newSink(cfg, logger)
	if err != nil {
		logger.Error("failed to create quote sink", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sink.Close()

	// Services. The balance service authorizes every order, so it is
	// created before the books.
	balanceSvc := service.NewBalanceService(balanceStore, pairs, logger)
	books := engine.NewBookManager(balanceSvc, pairs.All())
	orderSvc := service.NewOrderService(books, store.NewOrderStore(), logger)
	bookSvc := service.NewBookService(books, pairs)

	// Quote publisher.
	quotes := publisher.New(cfg.ExchangeName, sink, cfg.QuoteBuffer, cfg.PublishTimeout, logger)
	unsubscribe := quotes.Subscribe(books.All())
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		quotes.Run(ctx)
	}()

	router := handler.NewRouter(balanceSvc, orderSvc, bookSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Int("pairs", len(cfg.Pairs)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, then the publisher, then close
	// the sink and store via the deferred calls.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	wg.Wait()

	logger.Info("server stopped")
}

func openBalanceStore(cfg *config.Config) (store.BalanceStore, error) {
	if cfg.BalanceStoreDir == "" {
		return store.NewMemoryBalanceStore(), nil
	}
	return store.OpenPebbleBalanceStore(cfg.BalanceStoreDir)
}

func newSink(cfg *config.Config, logger *slog.Logger) (publisher.Sink, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("no kafka brokers configured, quotes will be logged")
		return publisher.NewLogSink(logger), nil
	}
	if cfg.KafkaClient == config.KafkaClientKafkaGo {
		return publisher.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	}
	return publisher.NewSaramaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
}
