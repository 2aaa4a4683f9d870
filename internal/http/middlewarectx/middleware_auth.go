// Package middlewarectx содержит HTTP middleware для обработки и проверки JWT токенов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization,
// разбирает его локально по подписи, и в случае успеха добавляет в контекст
// идентификатор аккаунта и его вид для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/healthlife-backend/internal/http/response"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AccountUID — ключ для идентификатора аккаунта в контексте.
	AccountUID Key = "account_uid"
	// AccountKind — ключ для вида аккаунта (user/doctor) в контексте.
	AccountKind Key = "account_kind"
)

// TokenParser описывает интерфейс для разбора токена сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден и его вид совпадает с requiredKind, добавляет идентификатор
// аккаунта и вид в контекст запроса, иначе возвращает HTTP 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger, requiredKind models.AccountKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			if claims.Kind != string(requiredKind) {
				log.Error("token kind mismatch",
					slog.String("required", string(requiredKind)),
					slog.String("got", claims.Kind))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), AccountUID, claims.AccountUID)
			ctx = context.WithValue(ctx, AccountKind, claims.Kind)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
