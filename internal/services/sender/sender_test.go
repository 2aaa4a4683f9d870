package services

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/healthlife-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if c := args.Get(0); c != nil {
		return c.(smtp.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type mockClient struct {
	mock.Mock
	written []byte
}

func (m *mockClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *mockClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *mockClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if w := args.Get(0); w != nil {
		return w.(io.WriteCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type captureWriter struct {
	data   []byte
	closed bool
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendRegistrationOTP_Success(t *testing.T) {
	transport := new(mockTransport)
	client := new(mockClient)
	writer := &captureWriter{}

	transport.On("GetSMTPUser").Return("noreply@healthlife.example")
	transport.On("Connect").Return(client, nil)
	client.On("Mail", "noreply@healthlife.example").Return(nil)
	client.On("Rcpt", "patient@example.com").Return(nil)
	client.On("Data").Return(writer, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	svc := NewSenderService(newTestLogger(), transport)

	err := svc.SendRegistrationOTP("patient@example.com", "482913")
	require.NoError(t, err)

	assert.True(t, writer.closed)
	assert.Contains(t, string(writer.data), "482913")
	assert.Contains(t, string(writer.data), "Email Verification")
	transport.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestSendPasswordResetOTP_ConnectError(t *testing.T) {
	transport := new(mockTransport)
	transport.On("GetSMTPUser").Return("noreply@healthlife.example")
	transport.On("Connect").Return(nil, errors.New("dial tcp: connection refused"))

	svc := NewSenderService(newTestLogger(), transport)

	err := svc.SendPasswordResetOTP("patient@example.com", "111111")
	require.Error(t, err)
}

func TestSendChatMessageNotification_Success(t *testing.T) {
	transport := new(mockTransport)
	client := new(mockClient)
	writer := &captureWriter{}

	transport.On("GetSMTPUser").Return("noreply@healthlife.example")
	transport.On("Connect").Return(client, nil)
	client.On("Mail", mock.Anything).Return(nil)
	client.On("Rcpt", "doctor@example.com").Return(nil)
	client.On("Data").Return(writer, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	body, err := json.Marshal(models.MessageNotification{
		ChatUID:        "chat-1",
		RecipientEmail: "doctor@example.com",
		RecipientName:  "Dr. Smith",
		SenderName:     "Alice",
		Text:           "Hello, doctor",
	})
	require.NoError(t, err)

	svc := NewSenderService(newTestLogger(), transport)

	err = svc.SendChatMessageNotification(body)
	require.NoError(t, err)

	assert.Contains(t, string(writer.data), "Dr. Smith")
	assert.Contains(t, string(writer.data), "Hello, doctor")
}

func TestSendChatMessageNotification_BadPayload(t *testing.T) {
	transport := new(mockTransport)
	svc := NewSenderService(newTestLogger(), transport)

	err := svc.SendChatMessageNotification([]byte("not json"))
	require.Error(t, err)
	transport.AssertNotCalled(t, "Connect")
}
