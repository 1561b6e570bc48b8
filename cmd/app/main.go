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

	"go.uber.org/zap"

	"bookscout/internal/config"
	"bookscout/internal/httpapi"
	"bookscout/internal/logging"
	"bookscout/internal/network"
	"bookscout/internal/service"
	"bookscout/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bookscout:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	defer logger.Sync() //nolint:errcheck

	logger.Info("bookscout starting", zap.String("catalog", cfg.CatalogURL), zap.Bool("proxy", cfg.TorProxyAddr != ""))

	// 2. Сеть: один клиент на весь процесс (через Tor, если задан TOR_PROXY)
	httpClient, err := network.NewHTTPClient(cfg.TorProxyAddr, cfg.HTTPTimeout)
	if err != nil {
		return err
	}
	fetcher := network.NewHTTPFetcher(httpClient, cfg.UserAgent)

	// 3. Сервис каталога (поиск + страницы книг)
	catalog, err := service.NewCatalogClient(fetcher, cfg.CatalogURL, service.Options{
		MaxInFlight:   cfg.MaxInFlight,
		DetailTimeout: cfg.DetailTimeout,
		Logger:        logger.Named("catalog"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Бюджет на весь поиск: страница выдачи плюс несколько волн страниц книг.
	searchTimeout := cfg.HTTPTimeout + 3*cfg.DetailTimeout

	// 4. HTTP API
	api := httpapi.New(catalog, logger.Named("http"), searchTimeout)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 5. Telegram-бот (необязательный)
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, catalog, logger.Named("telegram"), searchTimeout)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		go bot.Start(ctx)
	} else {
		logger.Info("TELEGRAM_TOKEN not set, bot disabled")
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http api: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
