// Package forgotpassword реализует HTTP-обработчик запроса кода сброса
// пароля. Код выдается только для существующих верифицированных записей.
package forgotpassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/auth"
)

// Request — входные данные для запроса сброса пароля.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Handler обрабатывает HTTP-запросы выпуска кода сброса пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	RequestPasswordResetOTP(ctx context.Context, kind models.AccountKind, email string) error
}

// New создает новый экземпляр Handler для данного вида аккаунта.
func New(log *slog.Logger, service Service, kind models.AccountKind) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		kind:     kind,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Запрос кода сброса пароля
// @Description Отправляет OTP для сброса пароля на email верифицированной учетной записи.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email"
// @Success 200 {object} map[string]any "Код отправлен (по возможности)"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/forgot-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.forgotpassword"

	log := h.log.With(
		slog.String("op", op),
		slog.String("kind", string(h.kind)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	err := h.service.RequestPasswordResetOTP(r.Context(), h.kind, req.Email)
	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Info("account not found", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Account not found"))
		return
	case errors.Is(err, services.ErrUnverified):
		log.Info("email not verified", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Please verify your email first"))
		return
	case errors.Is(err, services.ErrTooManyAttempts):
		log.Info("too many reset requests", slog.String("email", req.Email))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("Too many attempts, try again later"))
		return
	case errors.Is(err, services.ErrNotificationFailed):
		log.Error("failed to send reset otp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to send OTP"))
		return
	case err != nil:
		log.Error("failed to request password reset", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("reset otp sent", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithMessage("OTP sent to email"))
}
