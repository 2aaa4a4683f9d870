package rabbitmq

// QueueConfig описывает очередь и ее ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

const (
	// ChatMessageQueue — очередь уведомлений о новых сообщениях в чатах.
	ChatMessageQueue = "chat.messages"
	// ChatMessageRoutingKey — ключ маршрутизации для этой очереди.
	ChatMessageRoutingKey = "chat.message"
)

// GetNotificationQueues возвращает очереди, используемые сервисом уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ChatMessageQueue, RoutingKey: ChatMessageRoutingKey},
	}
}
