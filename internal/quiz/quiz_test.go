package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/inference"
)

const (
	subjectBiology  = "s-bio"
	bookCells       = "b-cells"
	chapterMembrane = "c-membrane"
	chapterNucleus  = "c-nucleus"
	topicStructure  = "t-structure"
	topicDNA        = "t-dna"
)

func newCellsSubject() *content.Subject {
	return &content.Subject{
		ID:    subjectBiology,
		Title: "Biology",
		Books: []content.Book{
			{
				ID:    bookCells,
				Title: "Cells",
				Chapters: []content.Chapter{
					{
						ID:    chapterMembrane,
						Title: "Membrane",
						Order: 0,
						Topics: []content.Topic{
							{
								ID:    topicStructure,
								Title: "Structure",
								Paragraphs: []content.Paragraph{
									{ID: "p-1", Order: 0, Text: "The membrane is selectively permeable.", Pages: []int{12}},
									{ID: "p-2", Order: 1, Text: "It is made of a lipid bilayer.", Pages: []int{13}},
								},
							},
						},
					},
					{
						ID:    chapterNucleus,
						Title: "Nucleus",
						Order: 1,
						Topics: []content.Topic{
							{
								ID:    topicDNA,
								Title: "DNA",
								Paragraphs: []content.Paragraph{
									{ID: "p-3", Order: 0, Text: "DNA is stored in the nucleus.", Pages: []int{30}},
								},
							},
						},
					},
				},
			},
			{ID: "b-empty", Title: "Empty"},
		},
	}
}

// rawQuestions returns n well-formed model questions whose first option is correct.
func rawQuestions(n int) []inference.Question {
	questions := make([]inference.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, inference.Question{
			QuestionText:   fmt.Sprintf("Question %d?", i),
			Options:        []string{fmt.Sprintf("A%d", i), fmt.Sprintf("B%d", i), fmt.Sprintf("C%d", i), fmt.Sprintf("D%d", i)},
			CorrectOption:  fmt.Sprintf("A%d", i),
			AIExplanation:  fmt.Sprintf("Explanation %d.", i),
			RelatedContent: inference.RelatedContent{Pages: []int{12}, Passages: []int{1}},
		})
	}
	return questions
}

type fakeContentSource struct {
	subjects map[string]*content.Subject
}

func (f fakeContentSource) FindSubject(_ context.Context, id string) (*content.Subject, error) {
	return f.subjects[id], nil
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type memTestRepository struct {
	tests []GeneratedTest
}

func (m *memTestRepository) Create(_ context.Context, test *GeneratedTest) error {
	test.ID = fmt.Sprintf("test-%d", len(m.tests)+1)
	test.CreatedAt = baseTime.Add(time.Duration(len(m.tests)) * time.Minute)
	m.tests = append(m.tests, *test)
	return nil
}

func (m *memTestRepository) FindByID(_ context.Context, id string) (*GeneratedTest, error) {
	for _, t := range m.tests {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memTestRepository) FindLatest(_ context.Context, key CacheKey) (*GeneratedTest, error) {
	var latest *GeneratedTest
	for _, t := range m.tests {
		if t.Scope() != key.Scope || t.SourceContentHash != key.Fingerprint {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = &t
		}
	}
	return latest, nil
}

type memHistoryRepository struct {
	entries []HistoryEntry
}

func (m *memHistoryRepository) Create(_ context.Context, entry *HistoryEntry) error {
	entry.ID = fmt.Sprintf("history-%d", len(m.entries)+1)
	entry.CreatedAt = baseTime.Add(time.Duration(len(m.entries)) * time.Hour)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memHistoryRepository) FindByUser(_ context.Context, userID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (m *memHistoryRepository) FindByID(_ context.Context, userID, id string) (*HistoryEntry, error) {
	for _, e := range m.entries {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memHistoryRepository) QuestionFingerprints(_ context.Context, userID, subjectID, bookID string) ([]string, error) {
	var fingerprints []string
	for _, e := range m.entries {
		if e.UserID == userID && e.SubjectID == subjectID && e.BookID == bookID {
			fingerprints = append(fingerprints, e.QuestionFingerprints...)
		}
	}
	return fingerprints, nil
}

func (m *memHistoryRepository) ExistsForTest(_ context.Context, userID, testID string) (bool, error) {
	for _, e := range m.entries {
		if e.UserID == userID && e.TestID == testID {
			return true, nil
		}
	}
	return false, nil
}
