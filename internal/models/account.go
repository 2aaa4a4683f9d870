// Package models содержит доменную модель учетной записи системы:
// двух видов аккаунтов (пациент и врач), их OTP-челлендж и профильные поля.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// AccountKind вид учетной записи: пациент ("user") или врач ("doctor").
type AccountKind string

const (
	// KindUser — пациент.
	KindUser AccountKind = "user"
	// KindDoctor — врач.
	KindDoctor AccountKind = "doctor"
)

// HasProfileCompletion сообщает, применима ли к виду аккаунта семантика
// "профиль заполнен" (редирект на заполнение профиля при первом входе).
func (k AccountKind) HasProfileCompletion() bool {
	return k == KindDoctor
}

// HasAvailability сообщает, есть ли у вида аккаунта флаг доступности.
func (k AccountKind) HasAvailability() bool {
	return k == KindDoctor
}

// Account представляет учетную запись пациента или врача.
// Поля OTPHash и OTPExpiresAt присутствуют только пока есть
// незакрытый челлендж и никогда не сериализуются наружу.
type Account struct {
	UID          string      // Уникальный идентификатор, выдается хранилищем
	Kind         AccountKind // Вид аккаунта
	Name         string      // Имя
	Email        string      // Электронная почта (уникальна среди верифицированных)
	PasswordHash string      // bcrypt-хэш пароля
	Verified     bool        // Подтвержден ли email; переходит в true ровно один раз
	OTPHash      string      // bcrypt-хэш незакрытого OTP, пустая строка если челленджа нет
	OTPExpiresAt *time.Time  // Абсолютный срок действия челленджа
	ImageURL     string      // URL изображения профиля в блоб-хранилище

	// Поля профиля пациента
	Phone   string
	DOB     string
	Gender  string
	Address string

	// Поля профиля врача
	Speciality      string
	Degree          string
	Experience      string
	About           string
	Available       bool // Доступен ли врач для новых чатов
	ProfileComplete bool // Заполнен ли профиль врача; переходит в true один раз

	CreatedAt time.Time
}

// HasChallenge сообщает, есть ли у аккаунта незакрытый OTP-челлендж.
func (a *Account) HasChallenge() bool {
	return a.OTPHash != "" && a.OTPExpiresAt != nil
}

// Profile — представление аккаунта без секретных полей,
// отдаваемое внешнему вызывающему.
type Profile struct {
	UID      string `json:"id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"image,omitempty"`

	Phone   string `json:"phone,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Address string `json:"address,omitempty"`

	Speciality      string `json:"speciality,omitempty"`
	Degree          string `json:"degree,omitempty"`
	Experience      string `json:"experience,omitempty"`
	About           string `json:"about,omitempty"`
	Available       *bool  `json:"available,omitempty"`
	ProfileComplete *bool  `json:"profileComplete,omitempty"`
}

// PublicProfile строит Profile из Account. Хэши пароля и OTP не копируются.
func PublicProfile(a *Account) *Profile {
	p := &Profile{
		UID:      a.UID,
		Kind:     string(a.Kind),
		Name:     a.Name,
		Email:    a.Email,
		ImageURL: a.ImageURL,
		Phone:    a.Phone,
		DOB:      a.DOB,
		Gender:   a.Gender,
		Address:  a.Address,
	}
	if a.Kind == KindDoctor {
		p.Speciality = a.Speciality
		p.Degree = a.Degree
		p.Experience = a.Experience
		p.About = a.About
		available := a.Available
		profileComplete := a.ProfileComplete
		p.Available = &available
		p.ProfileComplete = &profileComplete
	}
	return p
}

// DoctorCard — запись публичного каталога врачей: без email и секретов.
type DoctorCard struct {
	UID        string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image,omitempty"`
	Speciality string `json:"speciality,omitempty"`
	Degree     string `json:"degree,omitempty"`
	Experience string `json:"experience,omitempty"`
	About      string `json:"about,omitempty"`
	Available  bool   `json:"available"`
}
