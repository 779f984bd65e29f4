package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/idempotency"
	"marketplace/internal/repositories"
	"marketplace/internal/server"
	"marketplace/internal/services"
	"marketplace/pkg/kafka"
	"marketplace/pkg/rabbitmq"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on APP_PORT.

The schema is migrated on startup. Order events are published to the broker
selected by EVENTS_BACKEND, and checkout deduplication is enabled when
REDIS_ADDR is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	var guard services.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb, err := idempotency.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		guard = idempotency.NewRedisGuard(rdb, cfg.IdempotencyTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("checkout idempotency enabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, services.AuthConfig{
		Secret:        cfg.JWTSecret,
		TokenTTL:      cfg.TokenTTL,
		RefreshClaims: cfg.AuthRefreshClaims,
	})
	app := server.New(server.Deps{
		Auth:           authService,
		Users:          services.NewUserService(userRepo),
		Products:       services.NewProductService(productRepo),
		Orders:         services.NewOrderService(repositories.NewGORMTransactor(db), orderRepo, publisher, guard),
		LoginRateLimit: cfg.LoginRateLimit,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.AppPort).Str("driver", cfg.DBDriver).Str("events", cfg.EventsBackend).Msg("starting server")
		errCh <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}

// newPublisher returns the event publisher selected by EVENTS_BACKEND, or nil
// when events are disabled. The returned close function is always callable.
func newPublisher(cfg config.Config) (services.EventPublisher, func(), error) {
	var (
		publisher services.EventPublisher
		closer    io.Closer
	)
	switch cfg.EventsBackend {
	case "rabbitmq":
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return nil, nil, err
		}
		publisher, closer = client, client
	case "kafka":
		p := kafka.NewPublisher(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		publisher, closer = p, p
	default:
		return nil, func() {}, nil
	}

	return publisher, func() {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Str("backend", cfg.EventsBackend).Msg("failed to close event publisher")
		}
	}, nil
}
