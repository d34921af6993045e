package inference

import (
	"context"
	"errors"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations
type Client interface {
	GenerateTest(ctx context.Context, params GenerateTestRequest) (GenerateTestResponse, error)
}

var (
	// ErrMissingAPIKey is returned on first use when no credential is configured.
	ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not configured")
	// ErrMalformedResponse is returned when the completion does not contain the expected JSON object.
	ErrMalformedResponse = errors.New("malformed completion response")
)

// Passage is one numbered piece of source content shown to the model
type Passage struct {
	Number       int    `json:"number"`
	ChapterTitle string `json:"chapter_title,omitempty"`
	TopicTitle   string `json:"topic_title,omitempty"`
	Pages        []int  `json:"pages,omitempty"`
	Text         string `json:"text"`
}

// GenerateTestRequest holds the content and constraints for one test generation
type GenerateTestRequest struct {
	SubjectTitle string
	BookTitle    string
	// ChapterTitle is empty for whole-book tests
	ChapterTitle      string
	Topics            []string
	Passages          []Passage
	ExcludedQuestions []string
	QuestionCount     int
	OptionCount       int
}

// GenerateTestResponse is the decoded, not yet validated, model output
type GenerateTestResponse struct {
	Questions []Question `json:"questions"`
}

type Question struct {
	QuestionText   string         `json:"questionText"`
	Options        []string       `json:"options"`
	CorrectOption  string         `json:"correctOption"`
	AIExplanation  string         `json:"aiExplanation"`
	RelatedContent RelatedContent `json:"relatedContent"`
}

type RelatedContent struct {
	Pages []int `json:"pages,omitempty"`
	// Passages are 1-based passage numbers the question was written from
	Passages []int `json:"passages,omitempty"`
}

const (
	DefaultMaxRetryAttempts = 0
	DefaultModel            = "gpt-4o-mini"
	DefaultTemperature      = 0.7
)
