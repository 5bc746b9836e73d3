// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и признак активности.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int64      // Уникальный числовой идентификатор пользователя
	Email        string     // Электронная почта (уникальная)
	Username     string     // Имя пользователя (уникальное)
	PasswordHash string     // Хэш пароля пользователя
	IsActive     bool       // Признак активной сессии пользователя
	CreatedAt    time.Time  // Дата создания учётной записи
	UpdatedAt    *time.Time // Дата последнего изменения записи
}

// UserView публичное представление пользователя для HTTP-ответов.
// Хэш пароля наружу не отдаётся.
type UserView struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// View возвращает публичное представление пользователя.
func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// User восстанавливает доменную модель из публичного представления.
// Хэш пароля в представлении отсутствует, в восстановленной модели он пуст.
func (v UserView) User() *User {
	return &User{
		ID:        v.ID,
		Email:     v.Email,
		Username:  v.Username,
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}
