// Package password реализует безопасное хеширование и проверку секретов.
//
// Через один и тот же bcrypt-примитив хешируются и пароли, и одноразовые
// коды (OTP): открытый текст никогда не сохраняется, сравнение выполняется
// функцией с константным временем.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GetHash возвращает bcrypt-хэш секрета для хранения в базе данных.
func GetHash(secret string) (string, error) {
	const op = "password.GetHash"
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hash), nil
}

// CompareHash сравнивает bcrypt-хэш с предъявленным секретом.
//
// Возвращает nil при совпадении, иначе ошибку.
func CompareHash(originalHash, submitted string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(submitted)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
