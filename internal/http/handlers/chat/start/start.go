// Package start реализует HTTP-обработчик открытия чата пациента с врачом.
// Доступ к чату действует ограниченное время с момента открытия.
package start

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/chat"
)

// Request — входные данные для открытия чата.
type Request struct {
	DoctorID string `json:"doctorId" validate:"required,uuid"`
}

// Handler обрабатывает HTTP-запросы открытия чата.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики чатов.
type Service interface {
	Start(ctx context.Context, userUID, doctorUID string) (*models.Chat, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Открытие чата с врачом
// @Description Создает чат пациента с выбранным врачом с ограниченным сроком доступа.
// @Tags Chat
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Идентификатор врача"
// @Success 200 {object} map[string]any "Созданный чат"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /user/chats [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.start"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := r.Context().Value(middlewarectx.AccountUID).(string)
	if userUID == "" {
		log.Error("missing account uid in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

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

	chat, err := h.service.Start(r.Context(), userUID, req.DoctorID)
	switch {
	case errors.Is(err, services.ErrDoctorUnavailable):
		log.Info("doctor unavailable", slog.String("doctor_uid", req.DoctorID))
		render.JSON(w, r, response.Error("Doctor is not available"))
		return
	case err != nil:
		log.Error("failed to start chat", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("chat started", slog.String("chat_uid", chat.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{"chat": chat}))
}
