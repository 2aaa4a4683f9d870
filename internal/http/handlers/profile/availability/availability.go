// Package availability реализует HTTP-обработчик переключения доступности
// врача для новых чатов.
package availability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/profile"
)

// Handler обрабатывает HTTP-запросы переключения доступности врача.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики доступности.
type Service interface {
	ToggleAvailability(ctx context.Context, uid string) (bool, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Переключение доступности врача
// @Description Инвертирует флаг доступности врача и возвращает новое значение.
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Новое значение доступности"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Учетная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /doctor/availability [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.availability"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, _ := r.Context().Value(middlewarectx.AccountUID).(string)
	if uid == "" {
		log.Error("missing account uid in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	available, err := h.service.ToggleAvailability(r.Context(), uid)
	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Info("account not found", slog.String("uid", uid))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Account not found"))
		return
	case err != nil:
		log.Error("failed to toggle availability", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("availability toggled", slog.String("uid", uid), slog.Bool("available", available))
	render.JSON(w, r, response.OKWithData(map[string]any{"available": available}))
}
