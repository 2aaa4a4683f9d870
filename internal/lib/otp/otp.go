// Package otp генерирует одноразовые коды подтверждения.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeSpace — число кодов в шестизначном пространстве 100000–999999.
const codeSpace = 900000

// Generate возвращает шестизначный одноразовый код из криптографически
// стойкого источника случайности.
func Generate() (string, error) {
	const op = "otp.Generate"
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
