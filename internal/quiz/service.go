package quiz

import (
	"context"
	"fmt"
	"slices"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/statistics"
)

// ContentSource loads subject trees.
type ContentSource interface {
	// FindSubject returns nil when the subject does not exist.
	FindSubject(ctx context.Context, id string) (*content.Subject, error)
}

type GenerateRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	BookID    string `json:"bookId" validate:"required"`
	ChapterID string `json:"chapterId"`
	// FullBook generates from the whole book even if ChapterID is set.
	FullBook bool `json:"fullBook"`
}

func (r GenerateRequest) Scope() content.Scope {
	scope := content.Scope{SubjectID: r.SubjectID, BookID: r.BookID, ChapterID: r.ChapterID}
	if r.FullBook {
		scope.ChapterID = ""
	}
	return scope
}

type SubmitRequest struct {
	TestID  string            `json:"testId" validate:"required"`
	Answers []SubmittedAnswer `json:"answers" validate:"required,dive"`
}

type ServiceOptions struct {
	CacheEnabled      bool
	AllowResubmission bool
	WholeBookLabel    string
}

// Service runs the test pipeline: aggregate, generate or reuse, issue, grade, give feedback, record.
type Service struct {
	contents  ContentSource
	generator *Generator
	cache     *TestCache
	tests     TestRepository
	history   HistoryRepository
	recorder  *HistoryRecorder
	options   ServiceOptions
}

func NewService(contents ContentSource, generator *Generator, tests TestRepository, history HistoryRepository, options ServiceOptions) *Service {
	return &Service{
		contents:  contents,
		generator: generator,
		cache:     NewTestCache(tests, options.CacheEnabled),
		tests:     tests,
		history:   history,
		recorder:  NewHistoryRecorder(history),
		options:   options,
	}
}

func (s *Service) GenerateTest(ctx context.Context, userID string, req GenerateRequest) (IssuedTest, error) {
	scope := req.Scope()
	subject, err := s.contents.FindSubject(ctx, scope.SubjectID)
	if err != nil {
		return IssuedTest{}, fmt.Errorf("contents.FindSubject() > %w", err)
	}
	agg, err := content.Aggregate(subject, scope)
	if err != nil {
		return IssuedTest{}, err
	}

	key := CacheKey{Scope: scope, Fingerprint: content.Fingerprint(agg.Text)}
	cached, err := s.cache.FindCached(ctx, key)
	if err != nil {
		return IssuedTest{}, fmt.Errorf("cache.FindCached() > %w", err)
	}
	if cached != nil {
		return cached.Issue(), nil
	}

	excluded, err := s.history.QuestionFingerprints(ctx, userID, scope.SubjectID, scope.BookID)
	if err != nil {
		return IssuedTest{}, fmt.Errorf("history.QuestionFingerprints() > %w", err)
	}

	test, err := s.generator.Generate(ctx, agg, excluded)
	if err != nil {
		return IssuedTest{}, fmt.Errorf("generator.Generate() > %w", err)
	}
	if err := s.cache.Store(ctx, &test); err != nil {
		return IssuedTest{}, fmt.Errorf("cache.Store() > %w", err)
	}
	return test.Issue(), nil
}

func (s *Service) GetTest(ctx context.Context, testID string) (IssuedTest, error) {
	test, err := s.findTest(ctx, testID)
	if err != nil {
		return IssuedTest{}, err
	}
	return test.Issue(), nil
}

func (s *Service) findTest(ctx context.Context, testID string) (*GeneratedTest, error) {
	test, err := s.tests.FindByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("tests.FindByID() > %w", err)
	}
	if test == nil {
		return nil, apperr.NotFound("Test not found")
	}
	return test, nil
}

func (s *Service) SubmitTest(ctx context.Context, userID string, req SubmitRequest) (SubmissionResult, error) {
	test, err := s.findTest(ctx, req.TestID)
	if err != nil {
		return SubmissionResult{}, err
	}

	if !s.options.AllowResubmission {
		submitted, err := s.history.ExistsForTest(ctx, userID, test.ID)
		if err != nil {
			return SubmissionResult{}, fmt.Errorf("history.ExistsForTest() > %w", err)
		}
		if submitted {
			return SubmissionResult{}, apperr.InvalidInput("Test has already been submitted")
		}
	}

	grading, err := Grade(*test, req.Answers)
	if err != nil {
		return SubmissionResult{}, err
	}

	scope, err := s.feedbackScope(ctx, *test)
	if err != nil {
		return SubmissionResult{}, err
	}
	feedback := SynthesizeFeedback(grading, scope)

	entry, err := s.recorder.Record(ctx, userID, *test, grading, feedback)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("recorder.Record() > %w", err)
	}

	detailed := make([]DetailedAnswer, 0, len(grading.Questions))
	for _, q := range grading.Questions {
		detailed = append(detailed, DetailedAnswer{
			QuestionText:   q.Question.QuestionText,
			Options:        slices.Clone(q.Question.Options),
			CorrectOption:  q.Question.CorrectOption,
			SelectedOption: q.SelectedOption,
			IsCorrect:      q.IsCorrect,
			Explanation:    q.Question.Explanation,
			RelatedContent: q.Question.RelatedContent,
		})
	}

	return SubmissionResult{
		TestID:          test.ID,
		HistoryID:       entry.ID,
		Result:          grading.Result,
		Feedback:        feedback,
		DetailedAnswers: detailed,
	}, nil
}

func (s *Service) feedbackScope(ctx context.Context, test GeneratedTest) (FeedbackScope, error) {
	subject, err := s.contents.FindSubject(ctx, test.SubjectID)
	if err != nil {
		return FeedbackScope{}, fmt.Errorf("contents.FindSubject() > %w", err)
	}
	if subject == nil {
		return FeedbackScope{}, apperr.NotFound("Subject not found")
	}
	book := subject.FindBook(test.BookID)
	if book == nil {
		return FeedbackScope{}, apperr.NotFound("Book not found")
	}

	scope := FeedbackScope{
		BookTitle:      book.Title,
		ChapterTitles:  book.ChapterTitles(),
		WholeBookLabel: s.options.WholeBookLabel,
	}
	if test.ChapterID != "" {
		scope.ChapterTitle = scope.ChapterTitles[test.ChapterID]
	}
	return scope, nil
}

func (s *Service) History(ctx context.Context, userID string, query HistoryQuery) ([]HistoryEntry, error) {
	if err := query.validate(); err != nil {
		return nil, err
	}
	entries, err := s.history.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history.FindByUser() > %w", err)
	}
	return query.Apply(entries), nil
}

func (s *Service) HistoryEntry(ctx context.Context, userID, entryID string) (HistoryEntry, error) {
	entry, err := s.history.FindByID(ctx, userID, entryID)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("history.FindByID() > %w", err)
	}
	if entry == nil {
		return HistoryEntry{}, apperr.NotFound("Test history entry not found")
	}
	return *entry, nil
}

func (s *Service) Stats(ctx context.Context, userID string) (statistics.UserStats, error) {
	entries, err := s.history.FindByUser(ctx, userID)
	if err != nil {
		return statistics.UserStats{}, fmt.Errorf("history.FindByUser() > %w", err)
	}
	attempts := make([]statistics.Attempt, 0, len(entries))
	for _, e := range entries {
		attempts = append(attempts, statistics.Attempt{
			HistoryID:    e.ID,
			TestID:       e.TestID,
			SubjectID:    e.SubjectID,
			ScorePercent: e.Result.ScorePercent,
			CreatedAt:    e.CreatedAt,
		})
	}
	return statistics.Calculate(attempts), nil
}
