package verifyotp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	services "github.com/magabrotheeeer/healthlife-backend/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) VerifyOTP(ctx context.Context, kind models.AccountKind, email, code string) error {
	args := m.Called(ctx, kind, email, code)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestVerifyOTPHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		mockErr        error
		wantStatusCode int
		wantSuccess    bool
		wantMessage    string
	}{
		{
			name:           "valid otp",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			wantStatusCode: http.StatusOK,
			wantSuccess:    true,
			wantMessage:    "Email verified successfully",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
			wantMessage:    "invalid request body",
		},
		{
			name:           "otp too short",
			requestBody:    Request{Email: "user@example.com", OTP: "123"},
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
		},
		{
			name:           "otp not numeric",
			requestBody:    Request{Email: "user@example.com", OTP: "12a456"},
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
		},
		{
			name:           "account not found",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        services.ErrNotFound,
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
			wantMessage:    "Account not found",
		},
		{
			name:           "already verified",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        services.ErrAlreadyVerified,
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
			wantMessage:    "Email already verified",
		},
		{
			name:           "otp expired",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        services.ErrOTPExpired,
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
			wantMessage:    "OTP expired",
		},
		{
			name:           "wrong otp",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        services.ErrInvalidOTP,
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
			wantMessage:    "Invalid OTP",
		},
		{
			name:           "too many attempts",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        services.ErrTooManyAttempts,
			wantStatusCode: http.StatusTooManyRequests,
			wantSuccess:    false,
		},
		{
			name:           "unexpected error",
			requestBody:    Request{Email: "user@example.com", OTP: "482913"},
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantSuccess:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := new(AuthServiceMock)
			if req, ok := tt.requestBody.(Request); ok && len(req.OTP) == 6 {
				svcMock.On("VerifyOTP", mock.Anything, models.KindUser, req.Email, req.OTP).
					Return(tt.mockErr).Once()
			}

			handler := New(newNoopLogger(), svcMock, models.KindUser)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/register/verify-otp", bytes.NewReader(bodyBytes))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantSuccess, resp["success"])
			if tt.wantMessage != "" {
				assert.Contains(t, resp["message"], tt.wantMessage)
			}
		})
	}
}
