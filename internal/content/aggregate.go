package content

import (
	"slices"
	"strings"

	"github.com/lectio-edu/lectio/internal/apperr"
)

// ParagraphSeparator joins paragraph texts in aggregated content.
const ParagraphSeparator = "\n\n"

// Scope selects the content a test is generated from. An empty ChapterID means the whole book.
type Scope struct {
	SubjectID string
	BookID    string
	ChapterID string
}

func (s Scope) FullBook() bool {
	return s.ChapterID == ""
}

// Passage is one paragraph of aggregated content together with where it came from.
type Passage struct {
	ChapterID    string
	ChapterTitle string
	TopicID      string
	TopicTitle   string
	Pages        []int
	Text         string
}

// Aggregation is the flattened text of a scope plus the metadata needed to prompt and give feedback.
type Aggregation struct {
	Scope        Scope
	Text         string
	SubjectTitle string
	BookTitle    string
	// ChapterTitle is empty for whole-book scope.
	ChapterTitle  string
	Topics        []string
	Passages      []Passage
	ChapterTitles map[string]string
}

// Aggregate flattens the paragraphs under scope into ordered text.
// Chapters and paragraphs are ordered by their Order field, ties keep insertion order.
func Aggregate(subject *Subject, scope Scope) (Aggregation, error) {
	if subject == nil {
		return Aggregation{}, apperr.NotFound("Subject not found")
	}
	book := subject.FindBook(scope.BookID)
	if book == nil {
		return Aggregation{}, apperr.NotFound("Book not found")
	}

	chapters := book.Chapters
	if !scope.FullBook() {
		chapter := book.FindChapter(scope.ChapterID)
		if chapter == nil {
			return Aggregation{}, apperr.NotFound("Chapter not found")
		}
		chapters = []Chapter{*chapter}
	}

	agg := Aggregation{
		Scope:         scope,
		SubjectTitle:  subject.Title,
		BookTitle:     book.Title,
		ChapterTitles: book.ChapterTitles(),
	}
	if !scope.FullBook() {
		agg.ChapterTitle = chapters[0].Title
	}

	texts := make([]string, 0)
	for _, chapter := range sortedChapters(chapters) {
		for _, topic := range chapter.Topics {
			agg.Topics = append(agg.Topics, topic.Title)
			for _, paragraph := range sortedParagraphs(topic.Paragraphs) {
				texts = append(texts, paragraph.Text)
				agg.Passages = append(agg.Passages, Passage{
					ChapterID:    chapter.ID,
					ChapterTitle: chapter.Title,
					TopicID:      topic.ID,
					TopicTitle:   topic.Title,
					Pages:        slices.Clone(paragraph.Pages),
					Text:         paragraph.Text,
				})
			}
		}
	}

	agg.Text = strings.Join(texts, ParagraphSeparator)
	if strings.TrimSpace(agg.Text) == "" {
		return Aggregation{}, apperr.InvalidState("No content available for test generation")
	}
	return agg, nil
}

func sortedChapters(chapters []Chapter) []Chapter {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b Chapter) int {
		return a.Order - b.Order
	})
	return sorted
}

func sortedParagraphs(paragraphs []Paragraph) []Paragraph {
	sorted := slices.Clone(paragraphs)
	slices.SortStableFunc(sorted, func(a, b Paragraph) int {
		return a.Order - b.Order
	})
	return sorted
}
