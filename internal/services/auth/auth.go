// Package services содержит бизнес-логику регистрации, подтверждения email
// одноразовым кодом, входа и сброса пароля. Логика едина для обоих видов
// аккаунтов и параметризуется models.AccountKind.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/healthlife-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/otp"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/password"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	"github.com/magabrotheeeer/healthlife-backend/internal/storage/repository"
)

// OTPTTL — окно действия одноразового кода.
const OTPTTL = 10 * time.Minute

const (
	maxAttempts   = 5
	attemptWindow = 15 * time.Minute
)

// Ошибки бизнес-правил. Обработчики сопоставляют их через errors.Is
// и превращают в ответы {success:false}.
var (
	// ErrEmailTaken — верифицированный аккаунт с этим адресом уже существует.
	ErrEmailTaken = errors.New("account with this email already exists")
	// ErrNotFound — для адреса не начат процесс регистрации/сброса.
	ErrNotFound = errors.New("account not found")
	// ErrAlreadyVerified — email уже подтвержден; повторный verify не меняет состояние.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrOTPExpired — срок действия кода истек.
	ErrOTPExpired = errors.New("otp expired")
	// ErrInvalidOTP — код не совпал с сохраненным челленджем.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrUnverified — вход до подтверждения email.
	ErrUnverified = errors.New("email not verified")
	// ErrInvalidCredentials — неизвестный адрес или неверный пароль;
	// наружу эти случаи не различаются.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotificationFailed — код не удалось доставить; челлендж остается
	// в хранилище, повторный запрос его перезапишет.
	ErrNotificationFailed = errors.New("failed to send otp")
	// ErrTooManyAttempts — превышен лимит попыток для адреса.
	ErrTooManyAttempts = errors.New("too many attempts")
)

// AccountRepository описывает контракт хранилища учетных записей.
type AccountRepository interface {
	// UpsertUnverifiedAccount атомарно создает или перезаписывает
	// единственную неверифицированную запись для (email, kind).
	UpsertUnverifiedAccount(ctx context.Context, acc models.Account) (string, error)

	// GetAccountByEmail возвращает аккаунт или repository.ErrNotFound.
	GetAccountByEmail(ctx context.Context, kind models.AccountKind, email string) (*models.Account, error)

	// MarkVerified одноразово переводит verified в true и очищает челлендж;
	// repository.ErrNotFound, если челлендж уже не тот.
	MarkVerified(ctx context.Context, uid, otpHash string) error

	// SetChallenge сохраняет челлендж сброса пароля, не трогая verified.
	SetChallenge(ctx context.Context, uid, otpHash string, expiresAt time.Time) error

	// UpdatePassword заменяет хэш пароля и очищает челлендж условно.
	UpdatePassword(ctx context.Context, uid, passwordHash, otpHash string) error
}

// OTPNotifier доставляет одноразовые коды владельцу адреса.
type OTPNotifier interface {
	SendRegistrationOTP(email, code string) error
	SendPasswordResetOTP(email, code string) error
}

// AttemptLimiter считает попытки по ключу в скользящем окне.
type AttemptLimiter interface {
	IncrAttempts(ctx context.Context, key string, window time.Duration) (int64, error)
}

// AuthService отвечает за выпуск и проверку OTP-челленджей, вход и сброс пароля.
type AuthService struct {
	accounts AccountRepository
	notifier OTPNotifier
	jwtMaker jwt.Maker
	attempts AttemptLimiter
}

// NewAuthService создает новый экземпляр AuthService.
// attempts может быть nil — тогда лимит попыток не применяется.
func NewAuthService(accounts AccountRepository, notifier OTPNotifier, jwtMaker jwt.Maker, attempts AttemptLimiter) *AuthService {
	return &AuthService{
		accounts: accounts,
		notifier: notifier,
		jwtMaker: jwtMaker,
		attempts: attempts,
	}
}

func (s *AuthService) allow(ctx context.Context, flow string, kind models.AccountKind, email string) error {
	if s.attempts == nil {
		return nil
	}
	key := fmt.Sprintf("attempts:%s:%s:%s", flow, kind, email)
	n, err := s.attempts.IncrAttempts(ctx, key, attemptWindow)
	if err != nil {
		// лимитер недоступен — пропускаем
		return nil
	}
	if n > maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

// RequestRegistrationOTP выпускает регистрационный челлендж: генерирует
// шестизначный код, сохраняет его bcrypt-хэш вместе с хэшем пароля в
// единственную неверифицированную запись адреса (прежний челлендж
// вытесняется) и отправляет открытый код на email. Открытый код нигде
// не сохраняется.
func (s *AuthService) RequestRegistrationOTP(ctx context.Context, kind models.AccountKind, name, email, rawPassword string) error {
	existing, err := s.accounts.GetAccountByEmail(ctx, kind, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil && existing.Verified {
		return ErrEmailTaken
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	codeHash, err := password.GetHash(code)
	if err != nil {
		return err
	}
	passwordHash, err := password.GetHash(rawPassword)
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(OTPTTL)
	acc := models.Account{
		Kind:         kind,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		OTPHash:      codeHash,
		OTPExpiresAt: &expiresAt,
	}
	if _, err = s.accounts.UpsertUnverifiedAccount(ctx, acc); err != nil {
		return err
	}

	if err = s.notifier.SendRegistrationOTP(email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

// VerifyOTP закрывает регистрационный челлендж: при совпадении кода
// переводит аккаунт в verified и очищает челлендж. Переход одноразовый,
// повторный вызов вернет ErrAlreadyVerified.
func (s *AuthService) VerifyOTP(ctx context.Context, kind models.AccountKind, email, code string) error {
	if err := s.allow(ctx, "verify", kind, email); err != nil {
		return err
	}

	acc, err := s.accounts.GetAccountByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if acc.Verified {
		return ErrAlreadyVerified
	}
	if !acc.HasChallenge() || !time.Now().UTC().Before(*acc.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err = password.CompareHash(acc.OTPHash, code); err != nil {
		return ErrInvalidOTP
	}

	if err = s.accounts.MarkVerified(ctx, acc.UID, acc.OTPHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// челлендж успели перевыпустить или закрыть параллельно
			return ErrInvalidOTP
		}
		return err
	}
	return nil
}

// Login проверяет учетные данные и выпускает токен сессии.
// Неизвестный адрес и неверный пароль наружу неразличимы; до сравнения
// пароля аккаунт должен быть верифицирован. Для врача дополнительно
// возвращается признак заполненности профиля.
func (s *AuthService) Login(ctx context.Context, kind models.AccountKind, email, rawPassword string) (token string, profileComplete bool, err error) {
	if err = s.allow(ctx, "login", kind, email); err != nil {
		return "", false, err
	}

	acc, err := s.accounts.GetAccountByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, ErrInvalidCredentials
		}
		return "", false, err
	}
	if !acc.Verified {
		return "", false, ErrUnverified
	}
	if err = password.CompareHash(acc.PasswordHash, rawPassword); err != nil {
		return "", false, ErrInvalidCredentials
	}

	token, err = s.jwtMaker.GenerateToken(acc.UID, string(kind))
	if err != nil {
		return "", false, err
	}
	return token, acc.ProfileComplete, nil
}

// RequestPasswordResetOTP выпускает челлендж сброса пароля в существующую
// верифицированную запись; verified не изменяется.
func (s *AuthService) RequestPasswordResetOTP(ctx context.Context, kind models.AccountKind, email string) error {
	acc, err := s.accounts.GetAccountByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !acc.Verified {
		return ErrUnverified
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	codeHash, err := password.GetHash(code)
	if err != nil {
		return err
	}
	if err = s.accounts.SetChallenge(ctx, acc.UID, codeHash, time.Now().UTC().Add(OTPTTL)); err != nil {
		return err
	}

	if err = s.notifier.SendPasswordResetOTP(email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return nil
}

// ResetPassword закрывает челлендж сброса: код сверяется с хэшем тем же
// примитивом, что и пароль, после чего хэш пароля заменяется, а челлендж
// очищается одним условным обновлением. verified не изменяется.
func (s *AuthService) ResetPassword(ctx context.Context, kind models.AccountKind, email, code, newPassword string) error {
	if err := s.allow(ctx, "reset", kind, email); err != nil {
		return err
	}

	acc, err := s.accounts.GetAccountByEmail(ctx, kind, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !acc.HasChallenge() || !time.Now().UTC().Before(*acc.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err = password.CompareHash(acc.OTPHash, code); err != nil {
		return ErrInvalidOTP
	}

	newHash, err := password.GetHash(newPassword)
	if err != nil {
		return err
	}
	if err = s.accounts.UpdatePassword(ctx, acc.UID, newHash, acc.OTPHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	return nil
}
