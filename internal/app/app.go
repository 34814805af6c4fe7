package app

import (
	"context"
	"fmt"
	"jackpoints/internal/config"
	"jackpoints/internal/db"
	"jackpoints/internal/handlers"
	"jackpoints/internal/logger"
	"jackpoints/internal/queue"
	"jackpoints/internal/repository"
	"jackpoints/internal/routes"
	"jackpoints/internal/services"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitApp собирает зависимости и маршруты. cleanup закрывает соединения
// и останавливает фоновые задачи.
func InitApp(cfg *config.Config) (*mux.Router, func(), error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.EnsureSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}

	var closers []func()
	closers = append(closers, conn.Close)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Репозитории
	profileRepo := repository.NewProfileRepository(conn)

	tokenStore, closeStore, err := newResetTokenStore(cfg, conn)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	var txRepo services.TransactionRepo
	switch cfg.LedgerStore {
	case "memory":
		txRepo = repository.NewMemoryTransactionRepository()
	default:
		txRepo = repository.NewTransactionRepository(conn)
	}

	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		p := queue.NewPublisher(cfg.RabbitMQURL, cfg.LedgerQueue)
		publisher = p
		closers = append(closers, p.Close)
	}

	// Сервисы
	resetTokens := services.NewResetTokens(tokenStore)
	emailService := services.NewEmailService(cfg)
	passwordService := services.NewPasswordService(resetTokens, profileRepo, emailService, cfg.FrontendURL)
	ledger := services.NewLedger(txRepo, publisher, cfg.LedgerBatchSize)
	checkoutService := services.NewCheckoutService(
		cfg.CheckoutAPIURL,
		cfg.CheckoutSecret,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
		cfg.CheckoutCurrency,
		ledger,
	)

	// ▶️ Периодическая чистка просроченных токенов
	stopSweeper := StartResetTokenSweeper(resetTokens, cfg.ResetTokenSweepInterval)
	closers = append(closers, stopSweeper)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, cfg.JWTSecret, routes.Handlers{
		Health:      handlers.NewHealthHandler(conn),
		Password:    handlers.NewPasswordHandler(passwordService),
		Transaction: handlers.NewTransactionHandler(ledger),
		Checkout:    handlers.NewCheckoutHandler(checkoutService),
		Logs:        handlers.NewAdminLogsHandler(logger.LogDir),
	})

	logger.Log.Info("Приложение инициализировано",
		zap.String("token_store", cfg.TokenStore),
		zap.String("ledger_store", cfg.LedgerStore),
		zap.Bool("events", publisher != nil),
	)

	return router, cleanup, nil
}

func newResetTokenStore(cfg *config.Config, conn *pgxpool.Pool) (services.ResetTokenStore, func(), error) {
	switch cfg.TokenStore {
	case "memory":
		return repository.NewMemoryResetTokenStore(), nil, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		store := repository.NewRedisResetTokenStore(rdb, cfg.RedisPrefix, 2*services.ResetTokenTTL)
		return store, func() { _ = rdb.Close() }, nil
	default:
		return repository.NewPostgresResetTokenStore(conn), nil, nil
	}
}

// StartResetTokenSweeper раз в interval удаляет просроченные токены сброса.
// Возвращает функцию остановки.
func StartResetTokenSweeper(tokens *services.ResetTokens, interval time.Duration) func() {
	if interval <= 0 {
		return func() {}
	}
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				n, err := tokens.Sweep(ctx)
				cancel()
				if err != nil {
					logger.Log.Error("Ошибка чистки токенов сброса", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Log.Info("Удалены просроченные токены сброса", zap.Int("count", n))
				}
			}
		}
	}()
	return func() { close(done) }
}
