package requestotp

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

func (m *AuthServiceMock) RequestRegistrationOTP(ctx context.Context, kind models.AccountKind, name, email, rawPassword string) error {
	args := m.Called(ctx, kind, name, email, rawPassword)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRequestOTPHandler_ServeHTTP(t *testing.T) {
	validReq := Request{Name: "Alice", Email: "alice@example.com", Password: "password123"}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockErr        error
		wantStatusCode int
		wantSuccess    bool
		wantMessage    string
	}{
		{
			name:           "valid request",
			requestBody:    validReq,
			wantStatusCode: http.StatusOK,
			wantSuccess:    true,
			wantMessage:    "OTP sent to email",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
			wantMessage:    "invalid request body",
		},
		{
			name:           "invalid email",
			requestBody:    Request{Name: "Alice", Email: "not-an-email", Password: "password123"},
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
		},
		{
			name:           "short password",
			requestBody:    Request{Name: "Alice", Email: "alice@example.com", Password: "123"},
			wantStatusCode: http.StatusBadRequest,
			wantSuccess:    false,
		},
		{
			name:           "email taken",
			requestBody:    validReq,
			mockErr:        services.ErrEmailTaken,
			wantStatusCode: http.StatusOK,
			wantSuccess:    false,
			wantMessage:    "Account with this email already exists",
		},
		{
			name:           "notification failed",
			requestBody:    validReq,
			mockErr:        services.ErrNotificationFailed,
			wantStatusCode: http.StatusInternalServerError,
			wantSuccess:    false,
			wantMessage:    "Failed to send OTP",
		},
		{
			name:           "too many attempts",
			requestBody:    validReq,
			mockErr:        services.ErrTooManyAttempts,
			wantStatusCode: http.StatusTooManyRequests,
			wantSuccess:    false,
		},
		{
			name:           "unexpected error",
			requestBody:    validReq,
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantSuccess:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcMock := new(AuthServiceMock)
			svcMock.On("RequestRegistrationOTP", mock.Anything, models.KindUser,
				mock.Anything, mock.Anything, mock.Anything).
				Return(tt.mockErr).Maybe()

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

			req := httptest.NewRequest(http.MethodPost, "/register/request-otp", bytes.NewReader(bodyBytes))
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
