package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims описывает полезную нагрузку токена сессии.
type CustomClaims struct {
	AccountUID           string `json:"account_uid"` // Идентификатор аккаунта
	Kind                 string `json:"kind"`        // Вид аккаунта: "user" или "doctor"
	jwt.RegisteredClaims        // Стандартные claims (ExpiresAt, IssuedAt и пр.)
}

// GenerateToken выпускает HS256-токен с uid и видом аккаунта.
// Время жизни определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(accountUID, kind string) (string, error) {
	claims := CustomClaims{
		AccountUID: accountUID,
		Kind:       kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken проверяет подпись и валидность токена и возвращает claims.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
