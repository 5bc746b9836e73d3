package repository

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Файловый источник миграций.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate применяет SQL-миграции из каталога path поверх открытого соединения.
// Отсутствие новых миграций ошибкой не считается.
func (s *Storage) Migrate(path string) error {
	const op = "storage.Migrate"

	driver, err := pgxv5.WithInstance(s.DB, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "pgx_v5", driver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
