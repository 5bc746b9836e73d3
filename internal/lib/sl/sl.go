// Package sl — небольшие помощники для структурированного логирования через slog.
package sl

import "log/slog"

// Err упаковывает ошибку в атрибут с ключом "error",
// чтобы записи об ошибках во всех логах выглядели единообразно:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
