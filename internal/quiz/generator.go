package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lectio-edu/lectio/internal/apperr"
	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/inference"
)

// GenerationFailure tags why a generation attempt was rejected.
type GenerationFailure string

const (
	ReasonUpstream          GenerationFailure = "upstream"
	ReasonMalformed         GenerationFailure = "malformed_response"
	ReasonQuestionCount     GenerationFailure = "question_count"
	ReasonOptionCount       GenerationFailure = "option_count"
	ReasonInvalidQuestion   GenerationFailure = "invalid_question"
	ReasonDuplicateQuestion GenerationFailure = "duplicate_question"
	ReasonCorrectOption     GenerationFailure = "correct_option"
)

// GenerationError rejects a whole generation attempt. Nothing from a failed attempt is kept.
type GenerationError struct {
	Reason GenerationFailure
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	msg := "test generation failed (" + string(e.Reason) + ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.ErrUpstream) match every generation failure.
func (e *GenerationError) Is(target error) bool {
	return target == apperr.ErrUpstream
}

func generationError(reason GenerationFailure, format string, args ...any) *GenerationError {
	return &GenerationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Generator turns aggregated content into a validated GeneratedTest via the inference client.
type Generator struct {
	client inference.Client
}

func NewGenerator(client inference.Client) *Generator {
	return &Generator{client: client}
}

// Generate asks the model for a test and validates it. excludedFingerprints are QuestionFingerprint values.
// The returned test has no ID or CreatedAt yet.
func (g *Generator) Generate(ctx context.Context, agg content.Aggregation, excludedFingerprints []string) (GeneratedTest, error) {
	request := inference.GenerateTestRequest{
		SubjectTitle:      agg.SubjectTitle,
		BookTitle:         agg.BookTitle,
		ChapterTitle:      agg.ChapterTitle,
		Topics:            agg.Topics,
		Passages:          toInferencePassages(agg.Passages),
		ExcludedQuestions: DecodeQuestionFingerprints(excludedFingerprints),
		QuestionCount:     QuestionsPerTest,
		OptionCount:       OptionsPerQuestion,
	}

	response, err := g.client.GenerateTest(ctx, request)
	if err != nil {
		switch {
		case errors.Is(err, inference.ErrMissingAPIKey):
			return GeneratedTest{}, apperr.New(apperr.KindConfigurationMissing, err, "AI generation is not configured")
		case errors.Is(err, inference.ErrMalformedResponse):
			return GeneratedTest{}, &GenerationError{Reason: ReasonMalformed, Err: err}
		default:
			return GeneratedTest{}, &GenerationError{Reason: ReasonUpstream, Err: err}
		}
	}

	questions, err := normalizeQuestions(response.Questions, agg)
	if err != nil {
		slog.Default().Error("rejected generated test",
			"subject", agg.SubjectTitle,
			"book", agg.BookTitle,
			"error", err)
		return GeneratedTest{}, err
	}

	return GeneratedTest{
		SubjectID:         agg.Scope.SubjectID,
		BookID:            agg.Scope.BookID,
		ChapterID:         agg.Scope.ChapterID,
		Questions:         questions,
		SourceContentHash: content.Fingerprint(agg.Text),
	}, nil
}

func toInferencePassages(passages []content.Passage) []inference.Passage {
	result := make([]inference.Passage, 0, len(passages))
	for i, p := range passages {
		result = append(result, inference.Passage{
			Number:       i + 1,
			ChapterTitle: p.ChapterTitle,
			TopicTitle:   p.TopicTitle,
			Pages:        p.Pages,
			Text:         p.Text,
		})
	}
	return result
}

// normalizeQuestions validates the shape of the model output and resolves page provenance.
func normalizeQuestions(raw []inference.Question, agg content.Aggregation) ([]Question, error) {
	if len(raw) != QuestionsPerTest {
		return nil, generationError(ReasonQuestionCount, "expected %d questions, received %d", QuestionsPerTest, len(raw))
	}

	knownPages := make(map[int]struct{})
	for _, p := range agg.Passages {
		for _, page := range p.Pages {
			knownPages[page] = struct{}{}
		}
	}

	seenText := make(map[string]struct{}, len(raw))
	questions := make([]Question, 0, len(raw))
	for i, q := range raw {
		if strings.TrimSpace(q.QuestionText) == "" {
			return nil, generationError(ReasonInvalidQuestion, "question %d has no text", i+1)
		}
		if _, ok := seenText[q.QuestionText]; ok {
			return nil, generationError(ReasonDuplicateQuestion, "question %q appears more than once", q.QuestionText)
		}
		seenText[q.QuestionText] = struct{}{}

		if len(q.Options) != OptionsPerQuestion {
			return nil, generationError(ReasonOptionCount, "question %q has %d options, expected %d", q.QuestionText, len(q.Options), OptionsPerQuestion)
		}
		if hasDuplicate(q.Options) {
			return nil, generationError(ReasonInvalidQuestion, "question %q has duplicate options", q.QuestionText)
		}
		if !slices.Contains(q.Options, q.CorrectOption) {
			return nil, generationError(ReasonCorrectOption, "correct option of question %q is not one of its options", q.QuestionText)
		}

		questions = append(questions, Question{
			QuestionText:   q.QuestionText,
			Options:        slices.Clone(q.Options),
			CorrectOption:  q.CorrectOption,
			Explanation:    q.AIExplanation,
			RelatedContent: resolveRelatedContent(q.RelatedContent, agg, knownPages),
		})
	}
	return questions, nil
}

// resolveRelatedContent traces a question back to the passages it cites.
// Cited passages win over model-reported pages; unknown pages are dropped; DefaultPage fills the gap.
func resolveRelatedContent(raw inference.RelatedContent, agg content.Aggregation, knownPages map[int]struct{}) RelatedContent {
	related := RelatedContent{ChapterID: agg.Scope.ChapterID}

	var pages []int
	for _, number := range raw.Passages {
		if number < 1 || number > len(agg.Passages) {
			continue
		}
		passage := agg.Passages[number-1]
		if related.TopicID == "" {
			related.ChapterID = passage.ChapterID
			related.TopicID = passage.TopicID
		}
		pages = append(pages, passage.Pages...)
	}

	if len(pages) == 0 {
		for _, page := range raw.Pages {
			if _, ok := knownPages[page]; ok {
				pages = append(pages, page)
			}
		}
	}

	slices.Sort(pages)
	pages = slices.Compact(pages)
	if len(pages) == 0 {
		pages = []int{DefaultPage}
	}
	related.Pages = pages
	return related
}

func hasDuplicate(values []string) bool {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
