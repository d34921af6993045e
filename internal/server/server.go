// Package server exposes the test pipeline and content administration over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/lectio-edu/lectio/internal/auth"
	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/quiz"
	"github.com/lectio-edu/lectio/internal/statistics"
)

// TestService is the test pipeline used by the HTTP handlers.
type TestService interface {
	GenerateTest(ctx context.Context, userID string, req quiz.GenerateRequest) (quiz.IssuedTest, error)
	GetTest(ctx context.Context, testID string) (quiz.IssuedTest, error)
	SubmitTest(ctx context.Context, userID string, req quiz.SubmitRequest) (quiz.SubmissionResult, error)
	History(ctx context.Context, userID string, query quiz.HistoryQuery) ([]quiz.HistoryEntry, error)
	HistoryEntry(ctx context.Context, userID, entryID string) (quiz.HistoryEntry, error)
	Stats(ctx context.Context, userID string) (statistics.UserStats, error)
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type Server struct {
	tests      TestService
	contents   content.Repository
	auth       *auth.Service
	validate   *validator.Validate
	translator ut.Translator
	options    Options
}

func New(tests TestService, contents content.Repository, authService *auth.Service, options Options) (*Server, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		tests:      tests,
		contents:   contents,
		auth:       authService,
		validate:   validate,
		translator: trans,
		options:    options,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.options.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		// Generation outlives the request deadline, so it is kept out of the timeout group.
		r.Post("/tests/generate", s.generateTest)

		r.Group(func(r chi.Router) {
			if s.options.RequestTimeout > 0 {
				r.Use(middleware.Timeout(s.options.RequestTimeout))
			}

			r.Post("/tests/submit", s.submitTest)
			r.Get("/tests/{id}", s.getTest)

			r.Get("/users/me/tests", s.listHistory)
			r.Get("/users/me/tests/{historyId}", s.getHistoryEntry)
			r.Get("/users/me/stats", s.getStats)

			r.Get("/subjects", s.listSubjects)
			r.Get("/subjects/{id}", s.getSubject)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(auth.RoleAdmin))

				r.Post("/subjects", s.createSubject)
				r.Post("/subjects/{subjectId}/books", s.addBook)
				r.Post("/subjects/books/{bookId}/chapters", s.addChapter)
				r.Post("/subjects/chapters/{chapterId}/topics", s.addTopic)
				r.Post("/subjects/topics/{topicId}/paragraphs", s.addParagraph)
			})
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"status": "ok"}})
}
