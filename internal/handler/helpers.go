package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/service-tracker/internal/auth"
	"github.com/mmeshcher/service-tracker/internal/repository"
	"github.com/mmeshcher/service-tracker/internal/service"
	"github.com/mmeshcher/service-tracker/internal/validation"
	"github.com/mmeshcher/service-tracker/internal/workflow"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondWithJSON отправляет JSON-ответ.
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		h.logger.Debug("write response", zap.Error(err))
	}
}

// respondWithError отправляет ошибку в виде {"error": message}.
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, errorResponse{Error: message})
}

// respondWithErr выбирает код ответа по ошибке сервиса.
func (h *Handler) respondWithErr(w http.ResponseWriter, err error) {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		h.respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: fe.Error(), Fields: fe})
		return
	}

	code, message := mapError(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.respondWithError(w, code, message)
}

func mapError(err error) (int, string) {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Message
	case errors.Is(err, service.ErrProfileMissing):
		return http.StatusInternalServerError, service.ErrProfileMissing.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)
	case errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "An account with this email already exists."
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "The record was changed by another user. Reload and try again."
	case errors.Is(err, workflow.ErrTerminal):
		return http.StatusConflict, err.Error()
	case errors.Is(err, workflow.ErrUnknownAction):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// decodeJSON разбирает тело запроса. Пустое тело допустимо.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
