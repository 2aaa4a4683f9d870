// Package sender собирает приложение почтовых уведомлений: потребитель
// очереди событий чата, отправляющий письма вторым участникам.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/healthlife-backend/internal/config"
	libsmtp "github.com/magabrotheeeer/healthlife-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/healthlife-backend/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/healthlife-backend/internal/services/sender"
)

// App — приложение-потребитель уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и готовит сервис отправки писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := libsmtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ChatMessageQueue, a.senderService.SendChatMessageNotification)
	if err != nil {
		a.logger.Error("failed to start chat message consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
