// Package jwt реализует выпуск и разбор JWT-токенов сессии.
//
// Токен несет только идентификатор аккаунта и его вид (user/doctor),
// подписывается HS256 и ограничен по времени жизни. Состояние на сервере
// не хранится: проверка выполняется по подписи, без списка отзыва.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для выпуска и разбора токенов сессии.
type Maker interface {
	// GenerateToken выпускает подписанный токен для аккаунта данного вида.
	GenerateToken(accountUID, kind string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker на основе секретного ключа и TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создает MakerImpl с заданным секретом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
