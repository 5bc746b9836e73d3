// Package services реализует фоновую задачу ежедневного принудительного
// завершения сессий: цикл раз в интервал сверяет локальное время с целевым
// час:минута и при совпадении сбрасывает признак активности у всех пользователей.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/multiuser-auth/internal/cache"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/sl"
	"github.com/magabrotheeeer/multiuser-auth/internal/models"
	"github.com/magabrotheeeer/multiuser-auth/internal/rabbitmq"
)

// UserRepository описывает операции хранилища, нужные задаче разлогина.
type UserRepository interface {
	ListActiveUsernames(ctx context.Context) ([]string, error)
	DeactivateActiveUsers(ctx context.Context) (int64, error)
}

// Cache описывает инвалидацию кэшированных представлений пользователей.
type Cache interface {
	Invalidate(key string) error
}

// Publisher описывает публикацию событий о завершении сессий.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// AutoLogoutService фоновая задача принудительного разлогина.
type AutoLogoutService struct {
	repo      UserRepository
	cache     Cache
	publisher Publisher
	log       *slog.Logger

	location     *time.Location
	targetHour   int
	targetMinute int
	pollInterval time.Duration
}

// NewAutoLogoutService создает новый экземпляр AutoLogoutService.
func NewAutoLogoutService(repo UserRepository, userCache Cache, publisher Publisher,
	log *slog.Logger, location *time.Location, targetHour, targetMinute int,
	pollInterval time.Duration) *AutoLogoutService {
	return &AutoLogoutService{
		repo:         repo,
		cache:        userCache,
		publisher:    publisher,
		log:          log,
		location:     location,
		targetHour:   targetHour,
		targetMinute: targetMinute,
		pollInterval: pollInterval,
	}
}

// Run крутит цикл опроса до отмены контекста.
//
// Совпадение проверяется по точному час:минута, поэтому в пределах целевой
// минуты задача может сработать дважды; повторный проход не находит активных
// пользователей и ничем не заканчивается. Ошибки итерации логируются и
// поглощаются — цикл не останавливается.
func (s *AutoLogoutService) Run(ctx context.Context) {
	s.log.Info("auto-logout poller started",
		slog.String("trigger_time", time.Date(0, 1, 1, s.targetHour, s.targetMinute, 0, 0, time.UTC).Format("15:04")),
		slog.String("timezone", s.location.String()),
		slog.Duration("poll_interval", s.pollInterval))

	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for {
		now := time.Now().In(s.location)
		if now.Hour() == s.targetHour && now.Minute() == s.targetMinute {
			s.runOnce(ctx)
		}

		timer.Reset(s.pollInterval)
		select {
		case <-ctx.Done():
			s.log.Info("auto-logout poller stopped")
			return
		case <-timer.C:
		}
	}
}

// RunOnce выполняет один цикл принудительного разлогина независимо от времени.
func (s *AutoLogoutService) RunOnce(ctx context.Context) {
	s.runOnce(ctx)
}

func (s *AutoLogoutService) runOnce(ctx context.Context) {
	activeUsernames, err := s.repo.ListActiveUsernames(ctx)
	if err != nil {
		s.log.Error("failed to list active users", sl.Err(err))
		return
	}
	if len(activeUsernames) == 0 {
		s.log.Info("no active users found during auto-logout time")
		return
	}

	s.log.Info("active users before auto-logout",
		slog.String("usernames", strings.Join(activeUsernames, ", ")))

	affected, err := s.repo.DeactivateActiveUsers(ctx)
	if err != nil {
		s.log.Error("failed to deactivate active users", sl.Err(err))
		return
	}

	revokedAt := time.Now().In(s.location)
	for _, username := range activeUsernames {
		if err := s.cache.Invalidate(cache.UserKey(username)); err != nil {
			s.log.Warn("failed to invalidate user cache", slog.String("username", username), sl.Err(err))
		}
		event := models.SessionRevokedEvent{Username: username, RevokedAt: revokedAt}
		if err := s.publisher.Publish(rabbitmq.SessionsExchange, "revoked", event); err != nil {
			s.log.Error("failed to publish session revoked event",
				slog.String("username", username), sl.Err(err))
		}
	}

	s.log.Info("auto-logout completed successfully", slog.Int64("deactivated", affected))
}
