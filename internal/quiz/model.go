// Package quiz implements test generation, caching, grading, feedback and attempt history.
package quiz

import (
	"slices"
	"time"

	"github.com/lectio-edu/lectio/internal/content"
)

const (
	QuestionsPerTest   = 10
	OptionsPerQuestion = 4
	// DefaultPage is used when the model gives no usable page reference.
	DefaultPage = 1
)

type RelatedContent struct {
	ChapterID string `json:"chapterId,omitempty"`
	TopicID   string `json:"topicId,omitempty"`
	Pages     []int  `json:"pages"`
}

// Question is a validated multiple-choice question. CorrectOption is always one of Options.
type Question struct {
	QuestionText   string         `json:"questionText"`
	Options        []string       `json:"options"`
	CorrectOption  string         `json:"correctOption"`
	Explanation    string         `json:"aiExplanation"`
	RelatedContent RelatedContent `json:"relatedContent"`
}

// GeneratedTest is immutable once stored. An empty ChapterID means whole-book scope.
type GeneratedTest struct {
	ID                string     `json:"id"`
	SubjectID         string     `json:"subjectId"`
	BookID            string     `json:"bookId"`
	ChapterID         string     `json:"chapterId,omitempty"`
	Questions         []Question `json:"questions"`
	SourceContentHash string     `json:"sourceContentHash"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (t GeneratedTest) Scope() content.Scope {
	return content.Scope{SubjectID: t.SubjectID, BookID: t.BookID, ChapterID: t.ChapterID}
}

// IssuedQuestion is what a test taker sees: no correct option, no explanation.
type IssuedQuestion struct {
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
}

type IssuedTest struct {
	ID        string           `json:"id"`
	SubjectID string           `json:"subjectId"`
	BookID    string           `json:"bookId"`
	ChapterID string           `json:"chapterId,omitempty"`
	Questions []IssuedQuestion `json:"questions"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Issue strips answers and explanations.
func (t GeneratedTest) Issue() IssuedTest {
	questions := make([]IssuedQuestion, 0, len(t.Questions))
	for _, q := range t.Questions {
		questions = append(questions, IssuedQuestion{
			QuestionText: q.QuestionText,
			Options:      slices.Clone(q.Options),
		})
	}
	return IssuedTest{
		ID:        t.ID,
		SubjectID: t.SubjectID,
		BookID:    t.BookID,
		ChapterID: t.ChapterID,
		Questions: questions,
		CreatedAt: t.CreatedAt,
	}
}

// SubmittedAnswer is keyed by question text, not position.
type SubmittedAnswer struct {
	QuestionText   string `json:"questionText" validate:"required"`
	SelectedOption string `json:"selectedOption" validate:"required"`
}

type Answer struct {
	Question       string `json:"question"`
	SelectedOption string `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
}

type Result struct {
	TotalQuestions int `json:"totalQuestions"`
	CorrectAnswers int `json:"correctAnswers"`
	ScorePercent   int `json:"scorePercent"`
}

type WhereToRead struct {
	BookTitle    string `json:"bookTitle"`
	ChapterTitle string `json:"chapterTitle"`
	Pages        []int  `json:"pages"`
}

type Mistake struct {
	Question    string      `json:"question"`
	Explanation string      `json:"explanation"`
	WhereToRead WhereToRead `json:"whereToRead"`
}

type Feedback struct {
	Summary  string    `json:"summary"`
	Mistakes []Mistake `json:"mistakes"`
}

type DetailedAnswer struct {
	QuestionText   string         `json:"questionText"`
	Options        []string       `json:"options"`
	CorrectOption  string         `json:"correctOption"`
	SelectedOption string         `json:"selectedOption"`
	IsCorrect      bool           `json:"isCorrect"`
	Explanation    string         `json:"explanation"`
	RelatedContent RelatedContent `json:"relatedContent"`
}

type SubmissionResult struct {
	TestID          string           `json:"testId"`
	HistoryID       string           `json:"historyId"`
	Result          Result           `json:"result"`
	Feedback        Feedback         `json:"aiFeedback"`
	DetailedAnswers []DetailedAnswer `json:"detailedAnswers"`
}

// HistoryEntry is one recorded attempt. Entries are append-only.
type HistoryEntry struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	TestID               string    `json:"testId"`
	SubjectID            string    `json:"subjectId"`
	BookID               string    `json:"bookId"`
	ChapterID            string    `json:"chapterId,omitempty"`
	QuestionFingerprints []string  `json:"generatedQuestionsHash"`
	Answers              []Answer  `json:"answers"`
	Result               Result    `json:"result"`
	Feedback             Feedback  `json:"aiFeedback"`
	CreatedAt            time.Time `json:"createdAt"`
}
