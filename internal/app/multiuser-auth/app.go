// Package multiuserauth собирает приложение аутентификации: хранилище,
// кэш, брокер сообщений, бизнес-сервисы, HTTP-сервер и фоновую задачу
// принудительного разлогина.
package multiuserauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/multiuser-auth/internal/cache"
	"github.com/magabrotheeeer/multiuser-auth/internal/config"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/multiuser-auth/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/multiuser-auth/internal/services/auth"
	autologoutservice "github.com/magabrotheeeer/multiuser-auth/internal/services/autologout"
	"github.com/magabrotheeeer/multiuser-auth/internal/storage/repository"
)

// App представляет собранное приложение.
type App struct {
	server     *http.Server
	autoLogout *autologoutservice.AutoLogoutService
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
}

// New создает новый экземпляр приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := repository.EnsureDatabase(ctx, cfg.Postgres.AdminConnectionString(),
		cfg.Postgres.DatabaseName); err != nil {
		return nil, fmt.Errorf("failed to ensure database: %w", err)
	}

	db, err := repository.New(cfg.Postgres.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = db.Migrate("./migrations"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSessionQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(ch)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, cacheRedis, cfg.TokenTTL, logger)

	location, err := time.LoadLocation(cfg.AutoLogout.Timezone)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("invalid auto-logout timezone: %w", err)
	}
	hour, minute, err := cfg.AutoLogout.TriggerHourMinute()
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}
	autoLogout := autologoutservice.NewAutoLogoutService(db, cacheRedis, publisher,
		logger, location, hour, minute, cfg.AutoLogout.PollInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, authService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		autoLogout: autoLogout,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		conn:       conn,
		ch:         ch,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}

// Run запускает HTTP-сервер и фоновую задачу разлогина; блокируется
// до отмены контекста или падения сервера.
func (a *App) Run(ctx context.Context) error {
	go a.autoLogout.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	closeResources(a.ch, a.conn, a.logger)
	if cerr := a.cache.DB.Close(); cerr != nil {
		a.logger.Error("failed to close redis client", slog.Any("err", cerr))
	}
	if cerr := a.db.DB.Close(); cerr != nil {
		a.logger.Error("failed to close storage", slog.Any("err", cerr))
	}
	return err
}
