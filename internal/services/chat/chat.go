// Package services содержит бизнес-логику чат-сессий между пациентом
// и врачом: создание с окном доступа 24 часа, добавление сообщений и чтение.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/healthlife-backend/internal/lib/sl"
	"github.com/magabrotheeeer/healthlife-backend/internal/models"
	"github.com/magabrotheeeer/healthlife-backend/internal/storage/repository"
)

var (
	// ErrDoctorUnavailable — врач не существует или закрыл доступность.
	ErrDoctorUnavailable = errors.New("doctor is not available for chat")
	// ErrEmptyMessage — текст сообщения пуст после обрезки пробелов.
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrChatAccessDenied — чата нет, вызывающий не его участник или окно
	// доступа истекло; наружу эти случаи не различаются.
	ErrChatAccessDenied = errors.New("chat not found or access denied")
)

// ChatRepository описывает контракт хранилища чатов.
type ChatRepository interface {
	CreateChat(ctx context.Context, userUID, doctorUID string) (*models.Chat, error)
	GetChatForParty(ctx context.Context, chatUID, partyUID string, kind models.AccountKind) (*models.Chat, error)
	ListChatsForParty(ctx context.Context, partyUID string, kind models.AccountKind) ([]*models.Chat, error)
	// AppendMessage атомарно добавляет сообщение; repository.ErrNotFound,
	// если вызывающий не участник или окно доступа истекло.
	AppendMessage(ctx context.Context, chatUID, partyUID string, kind models.AccountKind, text string) error
}

// AccountReader — доступ к аккаунтам на чтение.
type AccountReader interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
}

// EventPublisher публикует событие нового сообщения для почтового
// уведомления второго участника.
type EventPublisher interface {
	PublishChatMessage(n models.MessageNotification) error
}

// ChatService реализует жизненный цикл чатов и журнал сообщений.
type ChatService struct {
	chats     ChatRepository
	accounts  AccountReader
	publisher EventPublisher
	log       *slog.Logger
}

// NewChatService создает новый экземпляр ChatService.
// publisher может быть nil — тогда уведомления не публикуются.
func NewChatService(chats ChatRepository, accounts AccountReader, publisher EventPublisher, log *slog.Logger) *ChatService {
	return &ChatService{
		chats:     chats,
		accounts:  accounts,
		publisher: publisher,
		log:       log,
	}
}

// Start создает чат между пациентом и врачом. Врач должен существовать
// и быть доступен; доступ выдается сразу, без платежного шага.
func (s *ChatService) Start(ctx context.Context, userUID, doctorUID string) (*models.Chat, error) {
	doctor, err := s.accounts.GetAccount(ctx, doctorUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDoctorUnavailable
		}
		return nil, err
	}
	if doctor.Kind != models.KindDoctor || !doctor.Available {
		return nil, ErrDoctorUnavailable
	}

	return s.chats.CreateChat(ctx, userUID, doctorUID)
}

// Send добавляет сообщение в чат от имени участника вида kind.
// Правило доступа одно для обеих сторон: вызывающий должен быть
// сохраненным участником чата, и окно доступа не должно быть истекшим.
// Возвращает чат с обновленным списком сообщений.
func (s *ChatService) Send(ctx context.Context, chatUID, partyUID string, kind models.AccountKind, text string) (*models.Chat, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if err := s.chats.AppendMessage(ctx, chatUID, partyUID, kind, text); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatAccessDenied
		}
		return nil, err
	}

	chat, err := s.chats.GetChatForParty(ctx, chatUID, partyUID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatAccessDenied
		}
		return nil, err
	}

	s.notifyCounterpart(ctx, chat, kind, text)
	return chat, nil
}

// Get возвращает чат с сообщениями для его участника. Истекший чат
// остается читаемым для обеих сторон.
func (s *ChatService) Get(ctx context.Context, chatUID, partyUID string, kind models.AccountKind) (*models.Chat, error) {
	chat, err := s.chats.GetChatForParty(ctx, chatUID, partyUID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatAccessDenied
		}
		return nil, err
	}
	return chat, nil
}

// List возвращает чаты участника, новые по активности первыми.
func (s *ChatService) List(ctx context.Context, partyUID string, kind models.AccountKind) ([]*models.Chat, error) {
	return s.chats.ListChatsForParty(ctx, partyUID, kind)
}

// notifyCounterpart публикует событие нового сообщения для второго
// участника. Доставка уведомления негарантированная: ошибка публикации
// логируется и не влияет на результат Send.
func (s *ChatService) notifyCounterpart(ctx context.Context, chat *models.Chat, senderKind models.AccountKind, text string) {
	if s.publisher == nil {
		return
	}

	recipientUID := chat.DoctorUID
	if senderKind == models.KindDoctor {
		recipientUID = chat.UserUID
	}
	senderUID := chat.UserUID
	if senderKind == models.KindDoctor {
		senderUID = chat.DoctorUID
	}

	recipient, err := s.accounts.GetAccount(ctx, recipientUID)
	if err != nil {
		s.log.Error("failed to load notification recipient", sl.Err(err))
		return
	}
	sender, err := s.accounts.GetAccount(ctx, senderUID)
	if err != nil {
		s.log.Error("failed to load notification sender", sl.Err(err))
		return
	}

	n := models.MessageNotification{
		ChatUID:        chat.UID,
		RecipientEmail: recipient.Email,
		RecipientName:  recipient.Name,
		SenderName:     sender.Name,
		Text:           text,
	}
	if err = s.publisher.PublishChatMessage(n); err != nil {
		s.log.Error("failed to publish chat message event", sl.Err(err))
	}
}
