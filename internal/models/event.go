package models

import "time"

// SessionRevokedEvent сообщение о принудительном завершении сессии пользователя.
// Публикуется в RabbitMQ при срабатывании автоматического разлогина.
type SessionRevokedEvent struct {
	Username  string    `json:"username"`
	RevokedAt time.Time `json:"revoked_at"`
}
