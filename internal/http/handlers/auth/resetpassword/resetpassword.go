// Package resetpassword реализует HTTP-обработчик установки нового пароля
// по коду сброса. Проверка кода и замена хэша выполняются одним условным
// обновлением: повторное использование кода невозможно.
package resetpassword

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

// Request — входные данные для установки нового пароля.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=8"`
}

// Handler обрабатывает HTTP-запросы установки нового пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики сброса пароля.
type Service interface {
	ResetPassword(ctx context.Context, kind models.AccountKind, email, code, newPassword string) error
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
// @Summary Установка нового пароля по коду сброса
// @Description Проверяет OTP и заменяет пароль учетной записи.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email, код и новый пароль"
// @Success 200 {object} map[string]any "Пароль обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/reset-password [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.resetpassword"

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

	err := h.service.ResetPassword(r.Context(), h.kind, req.Email, req.OTP, req.Password)
	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Info("account not found", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Account not found"))
		return
	case errors.Is(err, services.ErrOTPExpired):
		log.Info("otp expired", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("OTP expired, please request a new one"))
		return
	case errors.Is(err, services.ErrInvalidOTP):
		log.Info("invalid otp", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Invalid OTP"))
		return
	case errors.Is(err, services.ErrTooManyAttempts):
		log.Info("too many reset attempts", slog.String("email", req.Email))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("Too many attempts, try again later"))
		return
	case err != nil:
		log.Error("failed to reset password", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("password reset", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithMessage("Password reset successfully"))
}
