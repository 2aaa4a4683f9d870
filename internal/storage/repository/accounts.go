package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// accountColumns — общий список колонок для выборок аккаунта.
const accountColumns = `uid, kind, name, email, password_hash, verified,
	COALESCE(otp_hash, ''), otp_expires_at, COALESCE(image_url, ''),
	COALESCE(phone, ''), COALESCE(dob, ''), COALESCE(gender, ''), COALESCE(address, ''),
	COALESCE(speciality, ''), COALESCE(degree, ''), COALESCE(experience, ''), COALESCE(about, ''),
	available, profile_complete, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	a := &models.Account{}
	var otpExpires sql.NullTime
	if err := row.Scan(&a.UID, &a.Kind, &a.Name, &a.Email, &a.PasswordHash, &a.Verified,
		&a.OTPHash, &otpExpires, &a.ImageURL,
		&a.Phone, &a.DOB, &a.Gender, &a.Address,
		&a.Speciality, &a.Degree, &a.Experience, &a.About,
		&a.Available, &a.ProfileComplete, &a.CreatedAt); err != nil {
		return nil, err
	}
	if otpExpires.Valid {
		a.OTPExpiresAt = &otpExpires.Time
	}
	return a, nil
}

// UpsertUnverifiedAccount атомарно создает или перезаписывает единственную
// неверифицированную запись для пары (email, kind): имя, хэш пароля и
// челлендж последнего запроса вытесняют предыдущие. Возвращает uid записи.
func (s *Storage) UpsertUnverifiedAccount(ctx context.Context, acc models.Account) (string, error) {
	const op = "storage.UpsertUnverifiedAccount"

	var uid string
	query := `INSERT INTO accounts (kind, name, email, password_hash, verified, otp_hash, otp_expires_at)
			  VALUES ($1, $2, $3, $4, FALSE, $5, $6)
			  ON CONFLICT (email, kind) WHERE NOT verified
			  DO UPDATE SET name = EXCLUDED.name,
			                password_hash = EXCLUDED.password_hash,
			                otp_hash = EXCLUDED.otp_hash,
			                otp_expires_at = EXCLUDED.otp_expires_at
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		acc.Kind, acc.Name, acc.Email, acc.PasswordHash, acc.OTPHash, acc.OTPExpiresAt).Scan(&uid); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetAccountByEmail возвращает аккаунт по паре (email, kind).
// Верифицированная запись имеет приоритет над неверифицированной.
func (s *Storage) GetAccountByEmail(ctx context.Context, kind models.AccountKind, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE email = $1 AND kind = $2
			  ORDER BY verified DESC
			  LIMIT 1`
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, email, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// GetAccount возвращает аккаунт по uid.
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE uid = $1`
	acc, err := scanAccount(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// MarkVerified выполняет одноразовый переход verified=false -> true и
// одновременно очищает челлендж. Условие на otp_hash гарантирует, что
// переход пройдет ровно для того челленджа, который был проверен:
// из двух конкурентных verify успешным окажется только один.
func (s *Storage) MarkVerified(ctx context.Context, uid, otpHash string) error {
	const op = "storage.MarkVerified"

	query := `UPDATE accounts
			  SET verified = TRUE, otp_hash = NULL, otp_expires_at = NULL
			  WHERE uid = $1 AND NOT verified AND otp_hash = $2`
	res, err := s.DB.ExecContext(ctx, query, uid, otpHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// SetChallenge сохраняет новый челлендж в существующую запись, не трогая
// verified. Используется для сброса пароля.
func (s *Storage) SetChallenge(ctx context.Context, uid, otpHash string, expiresAt time.Time) error {
	const op = "storage.SetChallenge"

	query := `UPDATE accounts
			  SET otp_hash = $2, otp_expires_at = $3
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, uid, otpHash, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpdatePassword заменяет хэш пароля и очищает челлендж одним условным
// обновлением: смена проходит только если проверенный челлендж все еще
// актуален.
func (s *Storage) UpdatePassword(ctx context.Context, uid, passwordHash, otpHash string) error {
	const op = "storage.UpdatePassword"

	query := `UPDATE accounts
			  SET password_hash = $2, otp_hash = NULL, otp_expires_at = NULL
			  WHERE uid = $1 AND otp_hash = $3`
	res, err := s.DB.ExecContext(ctx, query, uid, passwordHash, otpHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpdateUserProfile обновляет профильные поля пациента.
func (s *Storage) UpdateUserProfile(ctx context.Context, uid string, acc models.Account) error {
	const op = "storage.UpdateUserProfile"

	query := `UPDATE accounts
			  SET name = $2, phone = $3, dob = $4, gender = $5, address = $6,
			      image_url = COALESCE(NULLIF($7, ''), image_url)
			  WHERE uid = $1 AND kind = 'user'`
	res, err := s.DB.ExecContext(ctx, query, uid, acc.Name, acc.Phone, acc.DOB, acc.Gender, acc.Address, acc.ImageURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// UpdateDoctorProfile обновляет профильные поля врача и помечает профиль
// заполненным. profile_complete не откатывается назад.
func (s *Storage) UpdateDoctorProfile(ctx context.Context, uid string, acc models.Account) error {
	const op = "storage.UpdateDoctorProfile"

	query := `UPDATE accounts
			  SET speciality = $2, degree = $3, experience = $4, about = $5,
			      available = $6, profile_complete = TRUE,
			      image_url = COALESCE(NULLIF($7, ''), image_url)
			  WHERE uid = $1 AND kind = 'doctor'`
	res, err := s.DB.ExecContext(ctx, query, uid, acc.Speciality, acc.Degree, acc.Experience, acc.About, acc.Available, acc.ImageURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ToggleAvailability инвертирует флаг доступности врача и возвращает
// новое значение.
func (s *Storage) ToggleAvailability(ctx context.Context, uid string) (bool, error) {
	const op = "storage.ToggleAvailability"

	var available bool
	query := `UPDATE accounts
			  SET available = NOT available
			  WHERE uid = $1 AND kind = 'doctor'
			  RETURNING available`
	if err := s.DB.QueryRowContext(ctx, query, uid).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return available, nil
}

// ListDoctors возвращает публичный каталог верифицированных врачей.
func (s *Storage) ListDoctors(ctx context.Context) ([]*models.DoctorCard, error) {
	const op = "storage.ListDoctors"

	query := `SELECT uid, name, COALESCE(image_url, ''), COALESCE(speciality, ''),
			      COALESCE(degree, ''), COALESCE(experience, ''), COALESCE(about, ''), available
			  FROM accounts
			  WHERE kind = 'doctor' AND verified
			  ORDER BY name`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DoctorCard
	for rows.Next() {
		var d models.DoctorCard
		if err = rows.Scan(&d.UID, &d.Name, &d.ImageURL, &d.Speciality,
			&d.Degree, &d.Experience, &d.About, &d.Available); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
