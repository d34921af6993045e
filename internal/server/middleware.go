package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/auth"
)

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			respondError(w, r, apperr.Unauthorized("Authentication required"))
			return
		}
		user, err := s.auth.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			respondError(w, r, apperr.New(apperr.KindUnauthorized, err, "Invalid token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok {
				respondError(w, r, apperr.Unauthorized("Authentication required"))
				return
			}
			if user.Role != role {
				respondError(w, r, apperr.Forbidden("Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Default().Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()))
	})
}
