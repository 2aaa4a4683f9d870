// Package requestotp реализует HTTP-обработчик запроса кода подтверждения
// регистрации. Принимает имя, email и пароль, создает неверифицированную
// запись и отправляет одноразовый код на почту.
package requestotp

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

// Request — входные данные для запроса регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Handler обрабатывает HTTP-запросы выпуска кода подтверждения регистрации.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	RequestRegistrationOTP(ctx context.Context, kind models.AccountKind, name, email, rawPassword string) error
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
// @Summary Запрос кода подтверждения регистрации
// @Description Создает неверифицированную учетную запись и отправляет OTP на email.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные регистрации"
// @Success 200 {object} map[string]any "Код отправлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/register/request-otp [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.requestotp"

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

	err := h.service.RequestRegistrationOTP(r.Context(), h.kind, req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		log.Info("email already registered", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Account with this email already exists"))
		return
	case errors.Is(err, services.ErrTooManyAttempts):
		log.Info("too many otp requests", slog.String("email", req.Email))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("Too many attempts, try again later"))
		return
	case errors.Is(err, services.ErrNotificationFailed):
		log.Error("failed to send otp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to send OTP"))
		return
	case err != nil:
		log.Error("failed to request registration otp", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("registration otp sent", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithMessage("OTP sent to email"))
}
