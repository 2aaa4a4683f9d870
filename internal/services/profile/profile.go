// Package services содержит бизнес-логику профилей: чтение и обновление
// данных аккаунта, переключение доступности врача и публичный каталог
// врачей с кэшированием в Redis.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	"github.com/magabrotheeeer/healthlife-backend/internal/storage/repository"
)

const (
	doctorsCacheKey = "doctors:list"
	doctorsCacheTTL = time.Minute
)

// ErrNotFound — аккаунт не существует.
var ErrNotFound = errors.New("account not found")

// ProfileRepository описывает контракт хранилища для операций профиля.
type ProfileRepository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	UpdateUserProfile(ctx context.Context, uid string, acc models.Account) error
	UpdateDoctorProfile(ctx context.Context, uid string, acc models.Account) error
	ToggleAvailability(ctx context.Context, uid string) (bool, error)
	ListDoctors(ctx context.Context) ([]*models.DoctorCard, error)
}

// BlobStore сохраняет блоб и возвращает URL для чтения.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// Cache — кэш каталога врачей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// ProfileService реализует операции над профилями аккаунтов.
type ProfileService struct {
	accounts ProfileRepository
	blobs    BlobStore
	cache    Cache
	log      *slog.Logger
}

// NewProfileService создает новый экземпляр ProfileService.
// blobs и cache могут быть nil: без blobs изображения не принимаются,
// без cache каталог читается из базы каждый раз.
func NewProfileService(accounts ProfileRepository, blobs BlobStore, cache Cache, log *slog.Logger) *ProfileService {
	return &ProfileService{
		accounts: accounts,
		blobs:    blobs,
		cache:    cache,
		log:      log,
	}
}

// Get возвращает профиль аккаунта без секретных полей.
func (s *ProfileService) Get(ctx context.Context, uid string) (*models.Profile, error) {
	acc, err := s.accounts.GetAccount(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return models.PublicProfile(acc), nil
}

// UserProfileUpdate — изменяемые поля профиля пациента.
type UserProfileUpdate struct {
	Name    string
	Phone   string
	DOB     string
	Gender  string
	Address string

	Image            []byte
	ImageContentType string
}

// UpdateUser обновляет профиль пациента; изображение, если передано,
// сохраняется в блоб-хранилище, URL записывается в аккаунт.
func (s *ProfileService) UpdateUser(ctx context.Context, uid string, upd UserProfileUpdate) (*models.Profile, error) {
	acc := models.Account{
		Name:    upd.Name,
		Phone:   upd.Phone,
		DOB:     upd.DOB,
		Gender:  upd.Gender,
		Address: upd.Address,
	}

	imageURL, err := s.storeImage(ctx, upd.Image, upd.ImageContentType)
	if err != nil {
		return nil, err
	}
	acc.ImageURL = imageURL

	if err = s.accounts.UpdateUserProfile(ctx, uid, acc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, uid)
}

// DoctorProfileUpdate — изменяемые поля профиля врача.
type DoctorProfileUpdate struct {
	Speciality string
	Degree     string
	Experience string
	About      string
	Available  bool

	Image            []byte
	ImageContentType string
}

// UpdateDoctor обновляет профиль врача. Первое обновление помечает профиль
// заполненным; признак не откатывается. Кэш каталога сбрасывается.
func (s *ProfileService) UpdateDoctor(ctx context.Context, uid string, upd DoctorProfileUpdate) (*models.Profile, error) {
	acc := models.Account{
		Speciality: upd.Speciality,
		Degree:     upd.Degree,
		Experience: upd.Experience,
		About:      upd.About,
		Available:  upd.Available,
	}

	imageURL, err := s.storeImage(ctx, upd.Image, upd.ImageContentType)
	if err != nil {
		return nil, err
	}
	acc.ImageURL = imageURL

	if err = s.accounts.UpdateDoctorProfile(ctx, uid, acc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidateDoctors(ctx)
	return s.Get(ctx, uid)
}

// ToggleAvailability инвертирует доступность врача и возвращает новое
// значение. Флаг не зависит от верификации и заполненности профиля.
func (s *ProfileService) ToggleAvailability(ctx context.Context, uid string) (bool, error) {
	available, err := s.accounts.ToggleAvailability(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	s.invalidateDoctors(ctx)
	return available, nil
}

// ListDoctors возвращает публичный каталог врачей, кэшируя результат.
func (s *ProfileService) ListDoctors(ctx context.Context) ([]*models.DoctorCard, error) {
	if s.cache != nil {
		var cached []*models.DoctorCard
		found, err := s.cache.Get(ctx, doctorsCacheKey, &cached)
		if err != nil {
			s.log.Error("failed to read doctors cache", sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	doctors, err := s.accounts.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err = s.cache.Set(ctx, doctorsCacheKey, doctors, doctorsCacheTTL); err != nil {
			s.log.Error("failed to write doctors cache", sl.Err(err))
		}
	}
	return doctors, nil
}

func (s *ProfileService) storeImage(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 || s.blobs == nil {
		return "", nil
	}
	return s.blobs.Upload(ctx, data, contentType)
}

func (s *ProfileService) invalidateDoctors(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, doctorsCacheKey); err != nil {
		s.log.Error("failed to invalidate doctors cache", sl.Err(err))
	}
}
