package rabbitmq

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSessionQueues возвращает очереди для событий сессий пользователей.
func GetSessionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "sessions.revoked", RoutingKey: "revoked"},
	}
}
