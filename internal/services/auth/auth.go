// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/multiuser-auth/internal/cache"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/jwt"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/password"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/sl"
	"github.com/magabrotheeeer/multiuser-auth/internal/models"
	"github.com/magabrotheeeer/multiuser-auth/internal/storage/repository"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// MarkUserActive выставляет признак активности после входа.
	MarkUserActive(ctx context.Context, username string) error
}

// Cache описывает контракт кэша представлений пользователей.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	cache    Cache
	tokenTTL time.Duration
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, userCache Cache,
	tokenTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		cache:    userCache,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Признак активности по умолчанию включён.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (*models.User, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		IsActive:     true,
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	created, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		// Строка уже вставлена, отдаём собранное представление без updated_at.
		user.ID = id
		user.CreatedAt = time.Now().UTC()
		return &user, nil
	}
	s.cacheUser(created)
	return created, nil
}

// Login проверяет пароль пользователя, помечает его активным и генерирует JWT.
//
// Несуществующий пользователь и неверный пароль различаются только типом
// ошибки для логов; наружу оба случая уходят одинаковым 401.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", ErrInvalidCredentials
	}
	if err := s.users.MarkUserActive(ctx, username); err != nil {
		return "", err
	}
	user.IsActive = true
	s.cacheUser(user)

	token, err := s.jwtMaker.GenerateToken(user.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}

// ResolveUser проверяет JWT и возвращает пользователя, являющегося субъектом токена.
//
// Представление читается сквозь кэш; промах добирается из базы.
func (s *AuthService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	var cached models.UserView
	found, err := s.cache.Get(cache.UserKey(claims.Username), &cached)
	if err != nil {
		s.log.Warn("user cache read failed", sl.Err(err))
	}
	if found {
		return cached.User(), nil
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.cacheUser(user)
	return user, nil
}

// cacheUser сохраняет публичное представление пользователя.
// Хэш пароля за пределы сервиса не выходит, в том числе в Redis.
func (s *AuthService) cacheUser(user *models.User) {
	if err := s.cache.Set(cache.UserKey(user.Username), user.View(), s.tokenTTL); err != nil {
		s.log.Warn("user cache write failed", sl.Err(err))
	}
}
