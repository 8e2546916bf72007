// Package session хранит активные сессии пользователей.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound возвращается, если сессия не найдена или истекла.
var ErrNotFound = errors.New("session not found")

// Session — активная сессия. ID совпадает с jti токена.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store — реестр активных сессий.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
