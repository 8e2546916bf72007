// Package auth аутентифицирует пользователей и выдаёт токены сессий.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials возвращается при неверной почте или пароле.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrUserExists возвращается при повторной регистрации почты.
	ErrUserExists = errors.New("user already registered")
	// ErrSessionNotFound возвращается для отсутствующей, отозванной или истёкшей сессии.
	ErrSessionNotFound = errors.New("session not found")
)

// Event — тип изменения сессии.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Session — аутентифицированная сессия пользователя.
type Session struct {
	AccessToken string    `json:"accessToken"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Provider — внешний провайдер аутентификации.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	OnSessionChange(fn func(Event, *Session)) (unsubscribe func())
}
