// Package repository реализует хранилище данных на основе PostgreSQL
// для учетных записей и чатов. Все конкурентные переходы состояния
// (upsert неверифицированной записи, подтверждение email, смена пароля,
// добавление сообщения) выполняются одним условным SQL-оператором,
// поэтому межпроцессные блокировки не нужны.
package repository

import (
	"context"
	"errors"
	"fmt"

	"database/sql"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound возвращается, когда запрошенная запись отсутствует
// либо условный переход состояния не прошел проверку условия.
var ErrNotFound = errors.New("record not found")

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создает подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}
