// Package list реализует HTTP-обработчик публичного каталога врачей.
// Каталог не требует аутентификации и не содержит email и секретных полей.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// Handler обрабатывает HTTP-запросы каталога врачей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListDoctors(ctx context.Context) ([]*models.DoctorCard, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог врачей
// @Description Возвращает публичный список врачей с публичными полями профиля.
// @Tags Doctors
// @Produce  json
// @Success 200 {object} map[string]any "Список врачей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /doctors [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.doctor.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	doctors, err := h.service.ListDoctors(r.Context())
	if err != nil {
		log.Error("failed to list doctors", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	if doctors == nil {
		doctors = []*models.DoctorCard{}
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"doctors": doctors}))
}
