// Package update реализует HTTP-обработчик обновления собственного профиля.
//
// Запрос приходит как multipart/form-data: текстовые поля профиля и
// опциональный файл изображения, который сохраняется в блоб-хранилище.
// Набор полей зависит от вида аккаунта: пациент редактирует контактные
// данные, врач — специальность и описание практики.
package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/profile"
)

// maxUploadSize ограничивает размер multipart-запроса, включая изображение.
const maxUploadSize = 5 << 20

// Handler обрабатывает HTTP-запросы обновления профиля.
type Handler struct {
	log     *slog.Logger
	service Service
	kind    models.AccountKind
}

// Service описывает интерфейс бизнес-логики профиля.
type Service interface {
	UpdateUser(ctx context.Context, uid string, upd services.UserProfileUpdate) (*models.Profile, error)
	UpdateDoctor(ctx context.Context, uid string, upd services.DoctorProfileUpdate) (*models.Profile, error)
}

// New создает новый экземпляр Handler для данного вида аккаунта.
func New(log *slog.Logger, service Service, kind models.AccountKind) *Handler {
	return &Handler{
		log:     log,
		service: service,
		kind:    kind,
	}
}

// ServeHTTP godoc
// @Summary Обновление собственного профиля
// @Description Обновляет профильные поля и, при наличии, изображение профиля.
// @Tags Profile
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Обновленный профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректная multipart-форма"
// @Failure 401 {object} response.ErrorResponse "Нет или невалидный токен"
// @Failure 404 {object} response.ErrorResponse "Учетная запись не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /{kind}/profile [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("kind", string(h.kind)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, _ := r.Context().Value(middlewarectx.AccountUID).(string)
	if uid == "" {
		log.Error("missing account uid in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	image, contentType, err := readImage(r)
	if err != nil {
		log.Error("failed to read image", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid image"))
		return
	}

	var profile *models.Profile
	if h.kind == models.KindDoctor {
		profile, err = h.service.UpdateDoctor(r.Context(), uid, services.DoctorProfileUpdate{
			Speciality:       r.FormValue("speciality"),
			Degree:           r.FormValue("degree"),
			Experience:       r.FormValue("experience"),
			About:            r.FormValue("about"),
			Available:        r.FormValue("available") != "false",
			Image:            image,
			ImageContentType: contentType,
		})
	} else {
		profile, err = h.service.UpdateUser(r.Context(), uid, services.UserProfileUpdate{
			Name:             r.FormValue("name"),
			Phone:            r.FormValue("phone"),
			DOB:              r.FormValue("dob"),
			Gender:           r.FormValue("gender"),
			Address:          r.FormValue("address"),
			Image:            image,
			ImageContentType: contentType,
		})
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Info("account not found", slog.String("uid", uid))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Account not found"))
		return
	case err != nil:
		log.Error("failed to update profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error"))
		return
	}

	log.Info("profile updated", slog.String("uid", uid))
	render.JSON(w, r, response.OKWithData(map[string]any{"profile": profile}))
}

func readImage(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Header.Get("Content-Type"), nil
}
