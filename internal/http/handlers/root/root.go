// Package root реализует корневой HTTP-обработчик с приветственным сообщением.
package root

import (
	"net/http"

	"github.com/go-chi/render"
)

// Response — тело корневого ответа.
type Response struct {
	Message string `json:"message"`
}

// New возвращает обработчик корневого маршрута.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{Message: "Welcome to MultiUser Auth API"})
	}
}
