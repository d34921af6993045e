package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lectio-edu/lectio/internal/apperr"
)

// HistoryRecorder appends graded attempts to a user's history.
type HistoryRecorder struct {
	history HistoryRepository
}

func NewHistoryRecorder(history HistoryRepository) *HistoryRecorder {
	return &HistoryRecorder{history: history}
}

// Record stores one attempt with a fingerprint for every question of the test.
func (r *HistoryRecorder) Record(ctx context.Context, userID string, test GeneratedTest, grading Grading, feedback Feedback) (HistoryEntry, error) {
	fingerprints := make([]string, 0, len(test.Questions))
	for _, q := range test.Questions {
		fingerprints = append(fingerprints, QuestionFingerprint(q.QuestionText))
	}

	entry := HistoryEntry{
		UserID:               userID,
		TestID:               test.ID,
		SubjectID:            test.SubjectID,
		BookID:               test.BookID,
		ChapterID:            test.ChapterID,
		QuestionFingerprints: fingerprints,
		Answers:              grading.Answers(),
		Result:               grading.Result,
		Feedback:             feedback,
	}
	if err := r.history.Create(ctx, &entry); err != nil {
		return HistoryEntry{}, fmt.Errorf("history.Create() > %w", err)
	}
	slog.Default().Info("recorded test attempt",
		"historyId", entry.ID,
		"userId", userID,
		"testId", test.ID,
		"scorePercent", entry.Result.ScorePercent)
	return entry, nil
}

type HistorySortField string

const (
	SortByCreatedAt    HistorySortField = "createdAt"
	SortByScorePercent HistorySortField = "scorePercent"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// HistoryQuery filters and orders a user's history. The zero value lists everything newest first.
type HistoryQuery struct {
	SubjectID string
	SortBy    HistorySortField
	Order     SortOrder
	Limit     int
}

func (q HistoryQuery) validate() error {
	switch q.SortBy {
	case "", SortByCreatedAt, SortByScorePercent:
	default:
		return apperr.InvalidInput("sortBy must be one of createdAt, scorePercent")
	}
	switch SortOrder(strings.ToLower(string(q.Order))) {
	case "", OrderAsc, OrderDesc:
	default:
		return apperr.InvalidInput("order must be one of asc, desc")
	}
	if q.Limit < 0 {
		return apperr.InvalidInput("limit must not be negative")
	}
	return nil
}

// Apply returns a filtered, sorted copy of entries. Ties keep their stored order.
func (q HistoryQuery) Apply(entries []HistoryEntry) []HistoryEntry {
	result := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if q.SubjectID != "" && e.SubjectID != q.SubjectID {
			continue
		}
		result = append(result, e)
	}

	desc := SortOrder(strings.ToLower(string(q.Order))) != OrderAsc
	slices.SortStableFunc(result, func(a, b HistoryEntry) int {
		var c int
		if q.SortBy == SortByScorePercent {
			c = a.Result.ScorePercent - b.Result.ScorePercent
		} else {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -c
		}
		return c
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}
