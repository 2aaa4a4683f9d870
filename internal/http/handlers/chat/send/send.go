// Package send реализует HTTP-обработчик отправки сообщения в чат.
//
// Отправлять могут обе стороны: пациент и врач. Запись и проверка доступа
// (участник чата, доступ предоставлен, срок не истек) выполняются одним
// условным запросом; при любом нарушении возвращается единый отказ без
// уточнения причины.
package send

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

// Request — входные данные для отправки сообщения.
type Request struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
	Text   string `json:"text" validate:"required"`
}

// Handler обрабатывает HTTP-запросы отправки сообщения.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики чатов.
type Service interface {
	Send(ctx context.Context, chatUID, partyUID string, kind models.AccountKind, text string) (*models.Chat, error)
}

// New создает новый экземпляр Handler для данной стороны чата.
func New(log *slog.Logger, service Service, kind models.AccountKind) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		kind:     kind,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправка сообщения в чат
// @Description Добавляет сообщение в чат, если вызывающий — его участник и срок доступа не истек.
// @Tags Chat
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Чат и текст сообщения"
// @Success 200 {object} map[string]any "Чат с обновленной историей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/chats/message [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.send"

	log := h.log.With(
		slog.String("op", op),
		slog.String("kind", string(h.kind)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	partyUID, _ := r.Context().Value(middlewarectx.AccountUID).(string)
	if partyUID == "" {
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

	chat, err := h.service.Send(r.Context(), req.ChatID, partyUID, h.kind, req.Text)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		log.Info("empty message rejected", slog.String("chat_uid", req.ChatID))
		render.JSON(w, r, response.Error("Message cannot be empty"))
		return
	case errors.Is(err, services.ErrChatAccessDenied):
		log.Info("chat access denied", slog.String("chat_uid", req.ChatID))
		render.JSON(w, r, response.Error("Chat not found or access expired"))
		return
	case err != nil:
		log.Error("failed to send message", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("message sent", slog.String("chat_uid", chat.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{"chat": chat}))
}
