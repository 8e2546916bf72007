package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/session"
)

// Credentials — хранилище учётных данных.
type Credentials interface {
	GetByEmail(ctx context.Context, email string) (*model.Credential, error)
	Create(ctx context.Context, c model.Credential) error
}

// Local — провайдер аутентификации поверх собственного хранилища учётных данных.
// Токены подписываются HS256, активные сессии хранятся в session.Store.
type Local struct {
	creds    Credentials
	sessions session.Store
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	newID    func() string

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func(Event, *Session)
}

// NewLocal создаёт локальный провайдер.
func NewLocal(creds Credentials, sessions session.Store, secret string, ttl time.Duration) *Local {
	return &Local{
		creds:     creds,
		sessions:  sessions,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		newID:     uuid.NewString,
		listeners: make(map[int]func(Event, *Session)),
	}
}

// SignUp регистрирует пользователя и возвращает его идентификатор.
func (l *Local) SignUp(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	c := model.Credential{
		ID:           l.newID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    l.now().UTC(),
	}
	if err := l.creds.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", fmt.Errorf("sign up: %w", err)
	}
	return c.ID, nil
}

// SignInWithPassword проверяет пароль и открывает новую сессию.
func (l *Local) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	c, err := l.creds.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	jti := l.newID()
	expires := l.now().Add(l.ttl).Truncate(time.Second)
	token, err := l.sign(c.ID, jti, expires)
	if err != nil {
		return nil, err
	}

	err = l.sessions.Put(ctx, session.Session{ID: jti, UserID: c.ID, Email: c.Email, ExpiresAt: expires})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	s := &Session{AccessToken: token, UserID: c.ID, Email: c.Email, ExpiresAt: expires}
	l.notify(EventSignedIn, s)
	return s, nil
}

// GetSession возвращает сессию по токену.
func (l *Local) GetSession(ctx context.Context, token string) (*Session, error) {
	_, jti, err := l.parse(token)
	if err != nil {
		return nil, err
	}

	stored, err := l.sessions.Get(ctx, jti)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &Session{
		AccessToken: token,
		UserID:      stored.UserID,
		Email:       stored.Email,
		ExpiresAt:   stored.ExpiresAt,
	}, nil
}

// SignOut отзывает сессию. Повторный выход не является ошибкой.
func (l *Local) SignOut(ctx context.Context, token string) error {
	s, err := l.GetSession(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, jti, _ := l.parse(token)
	if err := l.sessions.Delete(ctx, jti); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	l.notify(EventSignedOut, s)
	return nil
}

// OnSessionChange подписывает fn на изменения сессий.
func (l *Local) OnSessionChange(fn func(Event, *Session)) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *Local) notify(e Event, s *Session) {
	l.mu.Lock()
	fns := make([]func(Event, *Session), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(e, s)
	}
}

func (l *Local) sign(subject, jti string, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"jti": jti,
		"iat": l.now().Unix(),
		"exp": expires.Unix(),
	})

	signed, err := token.SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse возвращает subject и jti токена. Любой невалидный токен даёт ErrSessionNotFound.
func (l *Local) parse(token string) (string, string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return l.secret, nil
	}, jwt.WithTimeFunc(l.now))
	if err != nil || !parsed.Valid {
		return "", "", ErrSessionNotFound
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrSessionNotFound
	}
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return "", "", ErrSessionNotFound
	}
	return sub, jti, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
