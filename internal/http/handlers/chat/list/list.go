// Package list реализует HTTP-обработчик списка чатов вызывающей стороны.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// Handler обрабатывает HTTP-запросы списка чатов.
type Handler struct {
	log     *slog.Logger
	service Service
	kind    models.AccountKind
}

// Service описывает интерфейс бизнес-логики чатов.
type Service interface {
	List(ctx context.Context, partyUID string, kind models.AccountKind) ([]*models.Chat, error)
}

// New создает новый экземпляр Handler для данной стороны чата.
func New(log *slog.Logger, service Service, kind models.AccountKind) *Handler {
	return &Handler{
		log:     log,
		service: service,
		kind:    kind,
	}
}

// ServeHTTP godoc
// @Summary Список чатов
// @Description Возвращает чаты вызывающей стороны, включая истекшие (только чтение).
// @Tags Chat
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Список чатов"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/chats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.chat.list"

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

	chats, err := h.service.List(r.Context(), partyUID, h.kind)
	if err != nil {
		log.Error("failed to list chats", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	if chats == nil {
		chats = []*models.Chat{}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"chats": chats}))
}
