// Package multiuserauth предоставляет маршруты приложения.
package multiuserauth

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/multiuser-auth/internal/config"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/handlers/auth/token"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/handlers/root"
	"github.com/magabrotheeeer/multiuser-auth/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/multiuser-auth/internal/services/auth"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, authService *authservice.AuthService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: true,
		MaxAge:           int(cfg.CORS.MaxAge.Seconds()),
	}))

	r.Get("/", root.New())

	r.Route("/auth", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
		r.Use(middlewarectx.BodyLimitMiddleware(cfg.HTTPServer.MaxRequestBytes))

		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/token", token.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Get("/users/me", me.New(logger).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
