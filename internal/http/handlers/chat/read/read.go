// Package read реализует HTTP-обработчик чтения одного чата с историей
// сообщений. Истекший чат остается доступным для чтения его участникам.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/chat"
)

// Handler обрабатывает HTTP-запросы чтения чата.
type Handler struct {
	log      *slog.Logger
	service  Service
	kind     models.AccountKind
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики чатов.
type Service interface {
	Get(ctx context.Context, chatUID, partyUID string, kind models.AccountKind) (*models.Chat, error)
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
// @Summary Чтение чата
// @Description Возвращает чат с историей сообщений, если вызывающий — его участник.
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Param id path string true "Идентификатор чата"
// @Success 200 {object} map[string]any "Чат с сообщениями"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Чат не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/chats/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.read"

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

	chatUID := chi.URLParam(r, "id")
	if err := h.validate.Var(chatUID, "required,uuid"); err != nil {
		log.Error("invalid chat id", slog.String("chat_uid", chatUID))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid chat id"))
		return
	}

	chat, err := h.service.Get(r.Context(), chatUID, partyUID, h.kind)
	switch {
	case errors.Is(err, services.ErrChatAccessDenied):
		log.Info("chat not found", slog.String("chat_uid", chatUID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Chat not found"))
		return
	case err != nil:
		log.Error("failed to get chat", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{"chat": chat}))
}
