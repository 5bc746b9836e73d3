// Package repository реализует хранилище данных на основе PostgreSQL
// для управления пользователями. Предоставляет методы создания и поиска
// учётных записей, а также массового сброса признака активности.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища. Сервисный слой транслирует их
// в собственный набор типизированных ошибок.
var (
	// ErrUserAlreadyExists нарушено ограничение уникальности email или username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound запрошенный пользователь отсутствует в базе.
	ErrUserNotFound = errors.New("user not found")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// EnsureDatabase создаёт целевую базу данных, если она ещё не существует.
// Подключение выполняется к служебной базе postgres по adminConnectionString.
func EnsureDatabase(ctx context.Context, adminConnectionString, databaseName string) error {
	const op = "storage.EnsureDatabase"

	db, err := sql.Open("pgx", adminConnectionString)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = db.Close()
	}()

	var exists bool
	err = db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT FROM pg_database WHERE datname = $1)`,
		databaseName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE не принимает плейсхолдеры, имя подставляется через идентификатор.
	_, err = db.ExecContext(ctx, fmt.Sprintf(`CREATE DATABASE %q`, databaseName))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
