package services

import "errors"

// Типизированные ошибки сервиса аутентификации. Граница HTTP транслирует их
// в статусы ответов, не раскрывая внутренние детали клиенту.
var (
	// ErrUserAlreadyExists email или username уже заняты.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound пользователь отсутствует в хранилище.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials пароль не совпадает с сохранённым хэшем.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken подпись токена не проверяется.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
)
