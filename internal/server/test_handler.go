package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/auth"
	"github.com/lectio-edu/lectio/internal/quiz"
)

func currentUser(r *http.Request) auth.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}

func (s *Server) generateTest(w http.ResponseWriter, r *http.Request) {
	var req quiz.GenerateRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	// the AI call and the write that follows complete even if the client goes away
	ctx := context.WithoutCancel(r.Context())
	test, err := s.tests.GenerateTest(ctx, currentUser(r).ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, test)
}

func (s *Server) getTest(w http.ResponseWriter, r *http.Request) {
	test, err := s.tests.GetTest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, test)
}

func (s *Server) submitTest(w http.ResponseWriter, r *http.Request) {
	var req quiz.SubmitRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	result, err := s.tests.SubmitTest(r.Context(), currentUser(r).ID, req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := quiz.HistoryQuery{
		SubjectID: q.Get("subjectId"),
		SortBy:    quiz.HistorySortField(q.Get("sortBy")),
		Order:     quiz.SortOrder(q.Get("order")),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			respondError(w, r, apperr.InvalidInput("limit must be a number"))
			return
		}
		query.Limit = n
	}

	entries, err := s.tests.History(r.Context(), currentUser(r).ID, query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, entries)
}

func (s *Server) getHistoryEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.tests.HistoryEntry(r.Context(), currentUser(r).ID, chi.URLParam(r, "historyId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, entry)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tests.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
