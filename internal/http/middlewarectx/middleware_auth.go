// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// ограничения частоты запросов и размера тела запроса.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization,
// резолвит субъект токена в пользователя и в случае успеха кладёт пользователя
// в контекст запроса для дальнейшего использования в обработчиках.
//
// В случае любой ошибки проверки возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/multiuser-auth/internal/http/response"
	"github.com/magabrotheeeer/multiuser-auth/internal/lib/sl"
	"github.com/magabrotheeeer/multiuser-auth/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// CurrentUser ключ для резолвнутого пользователя в контексте.
const CurrentUser Key = "current_user"

// UserFromContext достаёт пользователя, положенного JWTMiddleware в контекст.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(CurrentUser).(*models.User)
	return user, ok
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден и его субъект существует, пользователь добавляется
// в контекст запроса, иначе возвращается 401 Unauthorized с одинаковым
// сообщением для всех причин отказа.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := authService.ResolveUser(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("not authenticated"))
				return
			}
			ctx := context.WithValue(r.Context(), CurrentUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
