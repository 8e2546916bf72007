// Package main запускает HTTP-сервер сервиса учёта ремонтных заказов.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/service-tracker/internal/auth"
	"github.com/mmeshcher/service-tracker/internal/config"
	"github.com/mmeshcher/service-tracker/internal/handler"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/service"
	"github.com/mmeshcher/service-tracker/internal/session"
	"github.com/mmeshcher/service-tracker/internal/store"
	"github.com/mmeshcher/service-tracker/internal/store/rest"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

const sessionJanitorInterval = time.Minute

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	if cfg.EphemeralSecret {
		sugar.Warn("AUTH_SECRET is not set, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		sugar.Fatalw("store initialization error", "backend", cfg.Backend(), "error", err.Error())
	}
	sugar.Infow("store ready", "backend", cfg.Backend())

	sessions, janitor, err := openSessions(ctx, cfg)
	if err != nil {
		sugar.Fatalw("session store initialization error", "error", err.Error())
	}
	if c, ok := sessions.(io.Closer); ok {
		defer c.Close()
	}

	provider := auth.NewLocal(repository.New(st).Credentials, sessions, cfg.AuthSecret, cfg.SessionTTL)
	unsubscribe := provider.OnSessionChange(func(e auth.Event, s *auth.Session) {
		logger.Info("session changed", zap.String("event", string(e)), zap.String("userId", s.UserID))
	})
	defer unsubscribe()

	svc := service.NewService(st, provider, workflow.NewEngine(), logger)
	defer svc.Close()

	h := handler.NewHandler(svc, logger)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Очистка истёкших сессий
	if janitor != nil {
		g.Go(func() error {
			janitor.StartJanitor(ctx, sessionJanitorInterval, logger)
			return nil
		})
	}

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting service tracker", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Backend() {
	case config.BackendPostgres:
		return store.NewPostgres(cfg.DatabaseURI)
	case config.BackendREST:
		return rest.NewClient(cfg.StoreURL, cfg.StoreAPIKey), nil
	default:
		mem := store.NewMemory()
		if err := store.SeedDemo(mem, time.Now()); err != nil {
			return nil, err
		}
		return mem, nil
	}
}

// openSessions возвращает реестр сессий. Для реестра в памяти возвращается
// также он сам для запуска janitor.
func openSessions(ctx context.Context, cfg *config.Config) (session.Store, *session.Memory, error) {
	if cfg.RedisAddr != "" {
		r, err := session.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	}
	mem := session.NewMemory()
	return mem, mem, nil
}
