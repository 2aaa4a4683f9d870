// Package healthlife предоставляет маршруты для основного приложения.
package healthlife

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/auth/requestotp"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/auth/verifyotp"
	chatlist "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/chat/list"
	chatread "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/chat/read"
	chatsend "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/chat/send"
	chatstart "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/chat/start"
	doctorlist "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/doctor/list"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/profile/availability"
	profileread "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/profile/read"
	profileupdate "github.com/magabrotheeeer/healthlife-backend/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	authservice "github.com/magabrotheeeer/healthlife-backend/internal/services/auth"
	chatservice "github.com/magabrotheeeer/healthlife-backend/internal/services/chat"
	profileservice "github.com/magabrotheeeer/healthlife-backend/internal/services/profile"
)

// RegisterRoutes регистрирует все маршруты приложения.
//
// Маршруты пациента и врача структурно параллельны: одинаковые операции
// аутентификации и профиля монтируются под /user и /doctor с
// соответствующим видом аккаунта.
func RegisterRoutes(r chi.Router, logger *slog.Logger, parser middlewarectx.TokenParser,
	authService *authservice.AuthService, profileService *profileservice.ProfileService,
	chatService *chatservice.ChatService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.RateLimitMiddleware(logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Get("/doctors", doctorlist.New(logger, profileService).ServeHTTP)

		for _, kind := range []models.AccountKind{models.KindUser, models.KindDoctor} {
			kind := kind
			r.Route("/"+string(kind), func(r chi.Router) {
				r.Post("/register/request-otp", requestotp.New(logger, authService, kind).ServeHTTP)
				r.Post("/register/verify-otp", verifyotp.New(logger, authService, kind).ServeHTTP)
				r.Post("/login", login.New(logger, authService, kind).ServeHTTP)
				r.Post("/forgot-password", forgotpassword.New(logger, authService, kind).ServeHTTP)
				r.Post("/reset-password", resetpassword.New(logger, authService, kind).ServeHTTP)

				// Группа с JWT аутентификацией
				r.Group(func(r chi.Router) {
					r.Use(middlewarectx.JWTMiddleware(parser, logger, kind))
					r.Get("/profile", profileread.New(logger, profileService).ServeHTTP)
					r.Put("/profile", profileupdate.New(logger, profileService, kind).ServeHTTP)

					r.Get("/chats", chatlist.New(logger, chatService, kind).ServeHTTP)
					r.Get("/chats/{id}", chatread.New(logger, chatService, kind).ServeHTTP)
					r.Post("/chats/message", chatsend.New(logger, chatService, kind).ServeHTTP)

					if kind == models.KindUser {
						r.Post("/chats", chatstart.New(logger, chatService).ServeHTTP)
					}
					if kind == models.KindDoctor {
						r.Post("/availability", availability.New(logger, profileService).ServeHTTP)
					}
				})
			})
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
