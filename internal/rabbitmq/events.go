package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// EventPublisher публикует доменные события чата в exchange уведомлений.
type EventPublisher struct {
	ch *amqp.Channel
}

// NewEventPublisher создает EventPublisher поверх открытого канала.
func NewEventPublisher(ch *amqp.Channel) *EventPublisher {
	return &EventPublisher{ch: ch}
}

// PublishChatMessage публикует событие нового сообщения в чате.
func (p *EventPublisher) PublishChatMessage(n models.MessageNotification) error {
	return PublishMessage(p.ch, "notifications", ChatMessageRoutingKey, n)
}
