// Package healthlife собирает основное HTTP-приложение: хранилище,
// миграции, кэш, блоб-хранилище, брокер событий и все сервисы поверх них.
package healthlife

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/healthlife-backend/internal/blobstore"
	"github.com/magabrotheeeer/healthlife-backend/internal/cache"
	"github.com/magabrotheeeer/healthlife-backend/internal/config"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	libsmtp "github.com/magabrotheeeer/healthlife-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/healthlife-backend/internal/migrations"
	"github.com/magabrotheeeer/healthlife-backend/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/healthlife-backend/internal/services/auth"
	chatservice "github.com/magabrotheeeer/healthlife-backend/internal/services/chat"
	profileservice "github.com/magabrotheeeer/healthlife-backend/internal/services/profile"
	senderservice "github.com/magabrotheeeer/healthlife-backend/internal/services/sender"
	"github.com/magabrotheeeer/healthlife-backend/internal/storage/repository"
)

// App — основное HTTP-приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New инициализирует зависимости и возвращает готовое к запуску приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	blobs, err := blobstore.New(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}

	// Брокер опционален: без него чаты работают, но почтовые уведомления
	// о новых сообщениях не отправляются.
	var publisher *rabbitmq.EventPublisher
	var amqpConn *amqp.Connection
	if cfg.RabbitMQURL != "" {
		amqpConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			amqpConn.Close()
			return nil, err
		}
		publisher = rabbitmq.NewEventPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, chat notifications disabled")
	}

	transport := libsmtp.NewTransport(cfg, logger)
	mailer := senderservice.NewSenderService(logger, transport)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, mailer, jwtMaker, cacheRedis)
	profileService := profileservice.NewProfileService(db, blobs, cacheRedis, logger)

	var chatService *chatservice.ChatService
	if publisher != nil {
		chatService = chatservice.NewChatService(db, db, publisher, logger)
	} else {
		chatService = chatservice.NewChatService(db, db, nil, logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, profileService, chatService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
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

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		if a.amqp != nil {
			if closeErr := a.amqp.Close(); closeErr != nil {
				a.logger.Error("failed to close rabbitmq connection", sl.Err(closeErr))
			}
		}
		return err
	}
}
