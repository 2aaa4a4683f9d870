// Package services собирает и отправляет исходящие письма: одноразовые
// коды подтверждения и сброса пароля (синхронно, на пути запроса) и
// уведомления о новых сообщениях чата (асинхронно, из очереди).
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// SenderService отправляет письма через SMTP-транспорт.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendRegistrationOTP отправляет код подтверждения регистрации.
// Ошибка отправки возвращается вызывающему: выпуск челленджа считается
// успешным только при успешной доставке.
func (s *SenderService) SendRegistrationOTP(email, code string) error {
	subject := "HealthLife - Email Verification"
	body := fmt.Sprintf("Your OTP for HealthLife registration is: %s\n\nThis code is valid for 10 minutes.", code)
	return s.sendEmail([]string{email}, subject, body)
}

// SendPasswordResetOTP отправляет код сброса пароля.
func (s *SenderService) SendPasswordResetOTP(email, code string) error {
	subject := "HealthLife - Password Reset OTP"
	body := fmt.Sprintf("You have requested to reset your password.\n\nYour OTP is: %s\n\nThis code will expire in 10 minutes. If you didn't request this, please ignore this email.", code)
	return s.sendEmail([]string{email}, subject, body)
}

// SendChatMessageNotification обрабатывает событие нового сообщения из
// очереди и уведомляет второго участника чата.
func (s *SenderService) SendChatMessageNotification(body []byte) error {
	var message models.MessageNotification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "HealthLife - New chat message"
	bodyText := fmt.Sprintf("Hello, %s!\n\nYou have a new message from %s:\n\n%s\n\nLog in to HealthLife to reply.",
		message.RecipientName, message.SenderName, message.Text)

	return s.sendEmail([]string{message.RecipientEmail}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("subject", subject), slog.Any("to", to))
	return nil
}
