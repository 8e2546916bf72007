// Package middleware содержит HTTP middleware сервиса учёта ремонтных заказов.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/service-tracker/internal/service"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthCookieName — cookie с токеном сессии.
const AuthCookieName = "auth_token"

// Authenticator восстанавливает пользователя по токену сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

// AuthMiddleware пропускает только запросы с действующей сессией.
type AuthMiddleware struct {
	auth    Authenticator
	onError func(w http.ResponseWriter, err error)
}

// NewAuthMiddleware создаёт middleware. onError отвечает клиенту, если
// сессию восстановить не удалось.
func NewAuthMiddleware(auth Authenticator, onError func(w http.ResponseWriter, err error)) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, onError: onError}
}

// Middleware проверяет токен и кладёт пользователя в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		p, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			a.onError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// TokenFromRequest возвращает токен из заголовка Authorization: Bearer или из cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetAuthCookie устанавливает cookie с токеном сессии.
func SetAuthCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie удаляет cookie сессии.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithPrincipal возвращает контекст с пользователем.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext извлекает пользователя из контекста запроса.
func PrincipalFromContext(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*service.Principal)
	return p, ok && p != nil
}
