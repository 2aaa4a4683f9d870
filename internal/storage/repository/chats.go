package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/healthlife-backend/internal/models"
)

// partyColumn возвращает колонку чата, по которой авторизуется участник
// данного вида.
func partyColumn(kind models.AccountKind) string {
	if kind == models.KindDoctor {
		return "doctor_uid"
	}
	return "user_uid"
}

// CreateChat создает чат-сессию между пациентом и врачом с окном доступа
// models.ChatAccessTTL и сразу выданным доступом.
func (s *Storage) CreateChat(ctx context.Context, userUID, doctorUID string) (*models.Chat, error) {
	const op = "storage.CreateChat"

	c := &models.Chat{UserUID: userUID, DoctorUID: doctorUID}
	query := `INSERT INTO chats (user_uid, doctor_uid, access_granted, expires_at)
			  VALUES ($1, $2, TRUE, now() + $3::interval)
			  RETURNING uid, access_granted, created_at, expires_at, updated_at;`
	if err := s.DB.QueryRowContext(ctx, query, userUID, doctorUID, models.ChatAccessTTL.String()).
		Scan(&c.UID, &c.AccessGranted, &c.CreatedAt, &c.ExpiresAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.Messages = []models.Message{}
	return c, nil
}

// GetChatForParty возвращает чат вместе с сообщениями, если вызывающий —
// его участник соответствующего вида. Срок действия не проверяется:
// истекшие чаты остаются читаемыми для обеих сторон.
func (s *Storage) GetChatForParty(ctx context.Context, chatUID, partyUID string, kind models.AccountKind) (*models.Chat, error) {
	const op = "storage.GetChatForParty"

	c := &models.Chat{}
	query := fmt.Sprintf(`SELECT uid, user_uid, doctor_uid, access_granted, created_at, expires_at, updated_at
			  FROM chats
			  WHERE uid = $1 AND %s = $2 AND access_granted`, partyColumn(kind))
	if err := s.DB.QueryRowContext(ctx, query, chatUID, partyUID).
		Scan(&c.UID, &c.UserUID, &c.DoctorUID, &c.AccessGranted, &c.CreatedAt, &c.ExpiresAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	msgQuery := `SELECT sender, text, created_at
			  FROM chat_messages
			  WHERE chat_uid = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, msgQuery, chatUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	c.Messages = []models.Message{}
	for rows.Next() {
		var m models.Message
		if err = rows.Scan(&m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Messages = append(c.Messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListChatsForParty возвращает чаты участника, новые по активности первыми.
// Сообщения не подгружаются.
func (s *Storage) ListChatsForParty(ctx context.Context, partyUID string, kind models.AccountKind) ([]*models.Chat, error) {
	const op = "storage.ListChatsForParty"

	query := fmt.Sprintf(`SELECT uid, user_uid, doctor_uid, access_granted, created_at, expires_at, updated_at
			  FROM chats
			  WHERE %s = $1 AND access_granted
			  ORDER BY updated_at DESC`, partyColumn(kind))
	rows, err := s.DB.QueryContext(ctx, query, partyUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Chat
	for rows.Next() {
		c := &models.Chat{}
		if err = rows.Scan(&c.UID, &c.UserUID, &c.DoctorUID, &c.AccessGranted,
			&c.CreatedAt, &c.ExpiresAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AppendMessage добавляет сообщение одним охраняемым INSERT: вставка
// проходит, только если вызывающий — участник чата своего вида и окно
// доступа еще не истекло. Правило одно для пациента и врача.
// Ноль затронутых строк означает отказ в доступе (ErrNotFound).
func (s *Storage) AppendMessage(ctx context.Context, chatUID, partyUID string, kind models.AccountKind, text string) error {
	const op = "storage.AppendMessage"

	query := fmt.Sprintf(`INSERT INTO chat_messages (chat_uid, sender, text)
			  SELECT uid, $3, $4
			  FROM chats
			  WHERE uid = $1 AND %s = $2 AND access_granted AND expires_at > now()`, partyColumn(kind))
	res, err := s.DB.ExecContext(ctx, query, chatUID, partyUID, string(kind), text)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	touch := `UPDATE chats SET updated_at = now() WHERE uid = $1`
	if _, err = s.DB.ExecContext(ctx, touch, chatUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
