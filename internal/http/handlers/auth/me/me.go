// Package me реализует HTTP-обработчик получения текущего пользователя.
// Пользователь резолвится JWT middleware и берётся из контекста запроса.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/multiuser-auth/internal/http/middlewarectx"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/response"
)

// Handler обрабатывает запросы текущего пользователя.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Возвращает публичное представление пользователя из bearer-токена.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.UserView "Текущий пользователь"
// @Failure 401 {object} response.ErrorResponse "Невалидный или истёкший токен"
// @Router /auth/users/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user missing from request context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}

	render.JSON(w, r, user.View())
}
