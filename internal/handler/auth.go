package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/middleware"
	"github.com/mmeshcher/service-tracker/internal/model"
	"github.com/mmeshcher/service-tracker/internal/service"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	AccessToken string          `json:"accessToken,omitempty"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	Profile     model.Profile   `json:"profile"`
	Views       []workflow.View `json:"views"`
}

// SignUp регистрирует пользователя.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpInput
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	h.logger.Info("user signed up", zap.String("userId", profile.ID), zap.String("role", string(profile.Role)))
	h.respondWithJSON(w, http.StatusCreated, profile)
}

// Login открывает сессию и устанавливает cookie с токеном.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.respondWithErr(w, err)
		return
	}

	p, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondWithErr(w, err)
		return
	}

	middleware.SetAuthCookie(w, p.Session.AccessToken, p.Session.ExpiresAt)
	h.respondWithJSON(w, http.StatusOK, sessionResponse{
		AccessToken: p.Session.AccessToken,
		ExpiresAt:   p.Session.ExpiresAt,
		Profile:     p.Profile,
		Views:       h.service.Views(p),
	})
}

// Logout закрывает сессию. Запрос без токена тоже завершается успешно.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.respondWithErr(w, err)
			return
		}
	}
	middleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session возвращает текущую сессию и профиль.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, sessionResponse{
		ExpiresAt: p.Session.ExpiresAt,
		Profile:   p.Profile,
		Views:     h.service.Views(p),
	})
}

// Views возвращает разделы, доступные пользователю.
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string][]workflow.View{"views": h.service.Views(p)})
}
