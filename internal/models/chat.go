// Package models содержит доменные структуры чата между пациентом и врачом:
// ограниченную по времени сессию и append-only последовательность сообщений.
package models

import "time"

// ChatAccessTTL — окно доступа к чату с момента создания.
const ChatAccessTTL = 24 * time.Hour

// Chat представляет чат-сессию между одним пациентом и одним врачом.
// AccessGranted в текущем дизайне всегда true: платежного шлюза нет,
// доступ выдается сразу при создании.
type Chat struct {
	UID           string    `json:"id"`
	UserUID       string    `json:"userId"`
	DoctorUID     string    `json:"doctorId"`
	AccessGranted bool      `json:"accessGranted"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Messages      []Message `json:"messages"`
}

// Expired сообщает, истекло ли окно доступа к чату на момент now.
func (c *Chat) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Message — одно сообщение в чате. Сообщения не редактируются,
// не удаляются и не переупорядочиваются; порядок равен порядку вставки.
type Message struct {
	Sender    string    `json:"sender"` // "user" или "doctor"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageNotification — событие нового сообщения, публикуемое в очередь
// для почтового уведомления второго участника чата.
type MessageNotification struct {
	ChatUID        string `json:"chat_uid"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`
	SenderName     string `json:"sender_name"`
	Text           string `json:"text"`
}
