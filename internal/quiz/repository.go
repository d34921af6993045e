package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TestRepository stores generated tests. Tests are never updated once created.
type TestRepository interface {
	// Create assigns ID and CreatedAt to test before inserting it.
	Create(ctx context.Context, test *GeneratedTest) error
	// FindByID returns nil when the test does not exist.
	FindByID(ctx context.Context, id string) (*GeneratedTest, error)
	// FindLatest returns the newest test for key, or nil.
	FindLatest(ctx context.Context, key CacheKey) (*GeneratedTest, error)
}

// HistoryRepository stores submitted attempts. Entries are append-only.
type HistoryRepository interface {
	Create(ctx context.Context, entry *HistoryEntry) error
	FindByUser(ctx context.Context, userID string) ([]HistoryEntry, error)
	// FindByID returns nil when the entry does not exist or belongs to another user.
	FindByID(ctx context.Context, userID, id string) (*HistoryEntry, error)
	QuestionFingerprints(ctx context.Context, userID, subjectID, bookID string) ([]string, error)
	ExistsForTest(ctx context.Context, userID, testID string) (bool, error)
}

type testRecord struct {
	ID                string         `db:"id"`
	SubjectID         string         `db:"subject_id"`
	BookID            string         `db:"book_id"`
	ChapterID         sql.NullString `db:"chapter_id"`
	Questions         string         `db:"questions"`
	SourceContentHash string         `db:"source_content_hash"`
	CreatedAt         int64          `db:"created_at"`
}

func (rec testRecord) toModel() (*GeneratedTest, error) {
	var questions []Question
	if err := json.Unmarshal([]byte(rec.Questions), &questions); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(questions) > %w", err)
	}
	return &GeneratedTest{
		ID:                rec.ID,
		SubjectID:         rec.SubjectID,
		BookID:            rec.BookID,
		ChapterID:         rec.ChapterID.String,
		Questions:         questions,
		SourceContentHash: rec.SourceContentHash,
		CreatedAt:         time.Unix(0, rec.CreatedAt).UTC(),
	}, nil
}

const selectTestColumns = "SELECT id, subject_id, book_id, chapter_id, questions, source_content_hash, created_at FROM generated_tests"

// DBTestRepository implements TestRepository on top of sqlx.
type DBTestRepository struct {
	db    *sqlx.DB
	newID func() string
	now   func() time.Time
}

func NewDBTestRepository(db *sqlx.DB) *DBTestRepository {
	return &DBTestRepository{db: db, newID: uuid.NewString, now: time.Now}
}

func (r *DBTestRepository) Create(ctx context.Context, test *GeneratedTest) error {
	questions, err := json.Marshal(test.Questions)
	if err != nil {
		return fmt.Errorf("json.Marshal(questions) > %w", err)
	}
	id := r.newID()
	createdAt := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO generated_tests (id, subject_id, book_id, chapter_id, questions, source_content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, test.SubjectID, test.BookID, nullString(test.ChapterID), string(questions),
		test.SourceContentHash, createdAt.UnixNano()); err != nil {
		return fmt.Errorf("db.ExecContext(insert generated test) > %w", err)
	}
	test.ID = id
	test.CreatedAt = createdAt
	return nil
}

func (r *DBTestRepository) FindByID(ctx context.Context, id string) (*GeneratedTest, error) {
	var rec testRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(selectTestColumns+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(generated test) > %w", err)
	}
	return rec.toModel()
}

func (r *DBTestRepository) FindLatest(ctx context.Context, key CacheKey) (*GeneratedTest, error) {
	query := selectTestColumns + " WHERE subject_id = ? AND book_id = ? AND source_content_hash = ?"
	args := []any{key.Scope.SubjectID, key.Scope.BookID, key.Fingerprint}
	if key.Scope.ChapterID == "" {
		query += " AND chapter_id IS NULL"
	} else {
		query += " AND chapter_id = ?"
		args = append(args, key.Scope.ChapterID)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	var rec testRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(latest generated test) > %w", err)
	}
	return rec.toModel()
}

type historyRecord struct {
	ID                   string         `db:"id"`
	UserID               string         `db:"user_id"`
	TestID               string         `db:"test_id"`
	SubjectID            string         `db:"subject_id"`
	BookID               string         `db:"book_id"`
	ChapterID            sql.NullString `db:"chapter_id"`
	QuestionFingerprints string         `db:"question_fingerprints"`
	Answers              string         `db:"answers"`
	TotalQuestions       int            `db:"total_questions"`
	CorrectAnswers       int            `db:"correct_answers"`
	ScorePercent         int            `db:"score_percent"`
	Feedback             string         `db:"feedback"`
	CreatedAt            int64          `db:"created_at"`
}

func (rec historyRecord) toModel() (HistoryEntry, error) {
	entry := HistoryEntry{
		ID:        rec.ID,
		UserID:    rec.UserID,
		TestID:    rec.TestID,
		SubjectID: rec.SubjectID,
		BookID:    rec.BookID,
		ChapterID: rec.ChapterID.String,
		Result: Result{
			TotalQuestions: rec.TotalQuestions,
			CorrectAnswers: rec.CorrectAnswers,
			ScorePercent:   rec.ScorePercent,
		},
		CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(rec.QuestionFingerprints), &entry.QuestionFingerprints); err != nil {
		return HistoryEntry{}, fmt.Errorf("json.Unmarshal(question fingerprints) > %w", err)
	}
	if err := json.Unmarshal([]byte(rec.Answers), &entry.Answers); err != nil {
		return HistoryEntry{}, fmt.Errorf("json.Unmarshal(answers) > %w", err)
	}
	if err := json.Unmarshal([]byte(rec.Feedback), &entry.Feedback); err != nil {
		return HistoryEntry{}, fmt.Errorf("json.Unmarshal(feedback) > %w", err)
	}
	return entry, nil
}

const selectHistoryColumns = `SELECT id, user_id, test_id, subject_id, book_id, chapter_id, question_fingerprints, answers,
	total_questions, correct_answers, score_percent, feedback, created_at FROM test_history`

// DBHistoryRepository implements HistoryRepository on top of sqlx.
type DBHistoryRepository struct {
	db    *sqlx.DB
	newID func() string
	now   func() time.Time
}

func NewDBHistoryRepository(db *sqlx.DB) *DBHistoryRepository {
	return &DBHistoryRepository{db: db, newID: uuid.NewString, now: time.Now}
}

func (r *DBHistoryRepository) Create(ctx context.Context, entry *HistoryEntry) error {
	fingerprints, err := json.Marshal(nonNil(entry.QuestionFingerprints))
	if err != nil {
		return fmt.Errorf("json.Marshal(question fingerprints) > %w", err)
	}
	answers, err := json.Marshal(nonNil(entry.Answers))
	if err != nil {
		return fmt.Errorf("json.Marshal(answers) > %w", err)
	}
	feedback, err := json.Marshal(entry.Feedback)
	if err != nil {
		return fmt.Errorf("json.Marshal(feedback) > %w", err)
	}

	id := r.newID()
	createdAt := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO test_history (id, user_id, test_id, subject_id, book_id, chapter_id, question_fingerprints, answers,
		total_questions, correct_answers, score_percent, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, entry.UserID, entry.TestID, entry.SubjectID, entry.BookID, nullString(entry.ChapterID),
		string(fingerprints), string(answers),
		entry.Result.TotalQuestions, entry.Result.CorrectAnswers, entry.Result.ScorePercent,
		string(feedback), createdAt.UnixNano()); err != nil {
		return fmt.Errorf("db.ExecContext(insert test history) > %w", err)
	}
	entry.ID = id
	entry.CreatedAt = createdAt
	return nil
}

// FindByUser returns the user's entries oldest first.
func (r *DBHistoryRepository) FindByUser(ctx context.Context, userID string) ([]HistoryEntry, error) {
	var records []historyRecord
	if err := r.db.SelectContext(ctx, &records,
		r.db.Rebind(selectHistoryColumns+" WHERE user_id = ? ORDER BY created_at, id"), userID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(test history) > %w", err)
	}
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entry, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *DBHistoryRepository) FindByID(ctx context.Context, userID, id string) (*HistoryEntry, error) {
	var rec historyRecord
	err := r.db.GetContext(ctx, &rec,
		r.db.Rebind(selectHistoryColumns+" WHERE id = ? AND user_id = ?"), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(test history) > %w", err)
	}
	entry, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// QuestionFingerprints returns every fingerprint the user has already seen for a book.
func (r *DBHistoryRepository) QuestionFingerprints(ctx context.Context, userID, subjectID, bookID string) ([]string, error) {
	var rows []string
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		"SELECT question_fingerprints FROM test_history WHERE user_id = ? AND subject_id = ? AND book_id = ? ORDER BY created_at"),
		userID, subjectID, bookID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(question fingerprints) > %w", err)
	}
	var fingerprints []string
	for _, row := range rows {
		var batch []string
		if err := json.Unmarshal([]byte(row), &batch); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(question fingerprints) > %w", err)
		}
		fingerprints = append(fingerprints, batch...)
	}
	return fingerprints, nil
}

func (r *DBHistoryRepository) ExistsForTest(ctx context.Context, userID, testID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		r.db.Rebind("SELECT COUNT(*) FROM test_history WHERE user_id = ? AND test_id = ?"), userID, testID); err != nil {
		return false, fmt.Errorf("db.GetContext(count test history) > %w", err)
	}
	return count > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
