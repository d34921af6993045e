package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lectio-edu/lectio/internal/apperr"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, envelope{Success: true, Data: data})
}

var defaultMessages = map[apperr.Kind]string{
	apperr.KindNotFound:             "Resource not found",
	apperr.KindInvalidInput:         "Invalid request",
	apperr.KindInvalidState:         "Invalid state",
	apperr.KindUpstream:             "Failed to generate test",
	apperr.KindConfigurationMissing: "Service is not configured",
	apperr.KindUnauthorized:         "Authentication required",
	apperr.KindForbidden:            "Access denied",
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput, apperr.KindInvalidState:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// kindOf classifies err, treating every generation failure as upstream.
func kindOf(err error) apperr.Kind {
	if kind := apperr.KindOf(err); kind != "" {
		return kind
	}
	if errors.Is(err, apperr.ErrUpstream) {
		return apperr.KindUpstream
	}
	return ""
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := kindOf(err)
	status := statusOf(kind)

	message := apperr.MessageOf(err)
	if message == "" {
		message = defaultMessages[kind]
	}
	if message == "" {
		message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		slog.Default().Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", string(kind),
			"requestId", middleware.GetReqID(r.Context()),
			"error", err)
	} else {
		slog.Default().Debug("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", string(kind),
			"error", err)
	}
	respondJSON(w, status, envelope{Success: false, Message: message})
}
