// Package login реализует HTTP-обработчик аутентификации.
//
// При успешном входе возвращается JWT-токен сессии; для врачей дополнительно
// возвращается признак заполненности профиля для редиректа на его заполнение.
package login

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

// Request — структура входных данных для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, kind models.AccountKind, email, rawPassword string) (token string, profileComplete bool, err error)
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
// @Summary Авторизация
// @Description Аутентифицирует пациента или врача по email и паролю. Возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} map[string]any "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много попыток"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	token, profileComplete, err := h.service.Login(r.Context(), h.kind, req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrUnverified):
		log.Info("email not verified", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Please verify your email first"))
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		log.Info("invalid credentials", slog.String("email", req.Email))
		render.JSON(w, r, response.Error("Invalid credentials"))
		return
	case errors.Is(err, services.ErrTooManyAttempts):
		log.Info("too many login attempts", slog.String("email", req.Email))
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("Too many attempts, try again later"))
		return
	case err != nil:
		log.Error("login failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	data := map[string]any{"token": token}
	if h.kind.HasProfileCompletion() {
		data["profileStatus"] = profileComplete
	}

	log.Info("login success", slog.String("email", req.Email))
	render.JSON(w, r, response.OKWithData(data))
}
