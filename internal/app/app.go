package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"nytimes/internal/adapter/fetcher"
	"nytimes/internal/adapter/parser"
	"nytimes/internal/config"
	"nytimes/internal/logger"
	server "nytimes/internal/transport/http"
	"nytimes/internal/usecase"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// App представляет NYTimes-прокси целиком.
// Связывает логгер, клиента upstream, use case'ы и HTTP-сервер, обеспечивает graceful shutdown.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	server   *http.Server
	stopChan chan os.Signal
	wg       sync.WaitGroup
}

// New создает и инициализирует приложение по проверенной конфигурации.
// Настраивает логгер и собирает граф зависимостей; сетевых соединений не открывает.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)

	policy := fetcher.RetryPolicy{
		MaxAttempts:   cfg.Upstream.MaxAttempts,
		BaseDelay:     cfg.Upstream.Backoff(),
		BackoffFactor: cfg.Upstream.BackoffFactor,
		Timeout:       cfg.Upstream.Timeout(),
	}
	httpFetcher := fetcher.NewHTTPFetcher(appLogger, policy)

	jsonParser := parser.NewJSONParser(appLogger)

	topStories := usecase.NewTopStoriesUseCase(
		httpFetcher,
		jsonParser,
		appLogger,
		cfg.Upstream.BaseURL,
		cfg.Upstream.APIKey,
		cfg.Upstream.FanOutLimit,
	)

	articleSearch := usecase.NewArticleSearchUseCase(httpFetcher, jsonParser, appLogger, cfg.Upstream.BaseURL, cfg.Upstream.APIKey)

	handler := server.NewHandler(appLogger, topStories, articleSearch)

	router := server.NewServer(appLogger, handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	return &App{
		config:   cfg,
		logger:   appLogger,
		server:   srv,
		stopChan: make(chan os.Signal, 1),
	}, nil
}

// Handler возвращает корневой HTTP-обработчик приложения.
func (a *App) Handler() http.Handler { return a.server.Handler }

// Run запускает HTTP-сервер и блокируется до сигнала завершения, отмены ctx
// или ошибки сервера, после чего выполняет Shutdown.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting NYTimes proxy",
		slog.String("component", "app"),
		slog.String("upstream", a.config.Upstream.BaseURL),
		slog.Int("max_attempts", a.config.Upstream.MaxAttempts),
	)
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	a.logger.Info("HTTP server ready",
		slog.String("component", "server"),
		slog.String("address", listener.Addr().String()),
	)
	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server failed", slog.String("component", "server"), slog.Any("error", err))
			serveErr <- err
		}
	}()
	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	var runErr error
	select {
	case sig := <-a.stopChan:
		a.logger.Info("Shutdown signal received",
			slog.String("component", "app"),
			slog.String("signal", sig.String()),
		)
	case <-ctx.Done():
		a.logger.Warn("Context cancelled, initiating shutdown", slog.String("component", "app"))
	case runErr = <-serveErr:
	}
	if err := a.Shutdown(); err != nil {
		return err
	}
	return runErr
}

// Shutdown останавливает HTTP-сервер, дожидаясь завершения активных запросов
// не дольше server.shutdown_timeout.
func (a *App) Shutdown() error {
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownDuration())
	defer cancel()
	var err error
	if err = a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", slog.String("component", "server"), slog.Any("error", err))
		err = fmt.Errorf("http server shutdown: %w", err)
	}
	a.wg.Wait()
	a.logger.Info("Application stopped gracefully", slog.String("component", "app"))
	return err
}
