package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectio-edu/lectio/internal/apperr"
)

func newBiologySubject() *Subject {
	return &Subject{
		ID:    "subject-1",
		Title: "Biology",
		Books: []Book{
			{
				ID:    "book-1",
				Title: "Cells",
				Chapters: []Chapter{
					{
						ID:    "chapter-2",
						Title: "Nucleus",
						Order: 1,
						Topics: []Topic{
							{
								ID:    "topic-3",
								Title: "DNA",
								Paragraphs: []Paragraph{
									{ID: "p-4", Order: 0, Text: "DNA is stored in the nucleus.", Pages: []int{30}},
								},
							},
						},
					},
					{
						ID:    "chapter-1",
						Title: "Membrane",
						Order: 0,
						Topics: []Topic{
							{
								ID:    "topic-1",
								Title: "Structure",
								Paragraphs: []Paragraph{
									{ID: "p-2", Order: 5, Text: "It is made of a lipid bilayer.", Pages: []int{13}},
									{ID: "p-1", Order: 0, Text: "The membrane is selectively permeable.", Pages: []int{12}},
								},
							},
							{
								ID:    "topic-2",
								Title: "Transport",
								Paragraphs: []Paragraph{
									{ID: "p-3", Order: 0, Text: "Diffusion needs no energy.", Pages: []int{15, 16}},
								},
							},
						},
					},
				},
			},
			{ID: "book-empty", Title: "Empty"},
		},
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name             string
		subject          *Subject
		scope            Scope
		wantText         string
		wantChapterTitle string
		wantTopics       []string
		wantKind         apperr.Kind
	}{
		{
			name:    "whole book follows chapter, topic then paragraph order",
			subject: newBiologySubject(),
			scope:   Scope{SubjectID: "subject-1", BookID: "book-1"},
			wantText: "The membrane is selectively permeable.\n\n" +
				"It is made of a lipid bilayer.\n\n" +
				"Diffusion needs no energy.\n\n" +
				"DNA is stored in the nucleus.",
			wantTopics: []string{"Structure", "Transport", "DNA"},
		},
		{
			name:             "single chapter",
			subject:          newBiologySubject(),
			scope:            Scope{SubjectID: "subject-1", BookID: "book-1", ChapterID: "chapter-2"},
			wantText:         "DNA is stored in the nucleus.",
			wantChapterTitle: "Nucleus",
			wantTopics:       []string{"DNA"},
		},
		{
			name:     "subject not found",
			subject:  nil,
			scope:    Scope{SubjectID: "missing", BookID: "book-1"},
			wantKind: apperr.KindNotFound,
		},
		{
			name:     "book not found",
			subject:  newBiologySubject(),
			scope:    Scope{SubjectID: "subject-1", BookID: "missing"},
			wantKind: apperr.KindNotFound,
		},
		{
			name:     "chapter not found",
			subject:  newBiologySubject(),
			scope:    Scope{SubjectID: "subject-1", BookID: "book-1", ChapterID: "missing"},
			wantKind: apperr.KindNotFound,
		},
		{
			name:     "book without content",
			subject:  newBiologySubject(),
			scope:    Scope{SubjectID: "subject-1", BookID: "book-empty"},
			wantKind: apperr.KindInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.subject, tt.scope)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, "Biology", got.SubjectTitle)
			assert.Equal(t, "Cells", got.BookTitle)
			assert.Equal(t, tt.wantChapterTitle, got.ChapterTitle)
			assert.Equal(t, tt.wantTopics, got.Topics)
			assert.Equal(t, "Membrane", got.ChapterTitles["chapter-1"])
		})
	}
}

func TestAggregate_Passages(t *testing.T) {
	got, err := Aggregate(newBiologySubject(), Scope{SubjectID: "subject-1", BookID: "book-1"})
	require.NoError(t, err)
	require.Len(t, got.Passages, 4)

	assert.Equal(t, Passage{
		ChapterID:    "chapter-1",
		ChapterTitle: "Membrane",
		TopicID:      "topic-1",
		TopicTitle:   "Structure",
		Pages:        []int{12},
		Text:         "The membrane is selectively permeable.",
	}, got.Passages[0])
	assert.Equal(t, []int{15, 16}, got.Passages[2].Pages)
	assert.Equal(t, "chapter-2", got.Passages[3].ChapterID)
}

func TestAggregate_DuplicateOrderKeepsInsertionOrder(t *testing.T) {
	subject := &Subject{
		ID: "s", Title: "S",
		Books: []Book{{
			ID: "b", Title: "B",
			Chapters: []Chapter{{
				ID: "c", Title: "C",
				Topics: []Topic{{
					ID: "t", Title: "T",
					Paragraphs: []Paragraph{
						{Order: 3, Text: "first"},
						{Order: 3, Text: "second"},
						{Order: 1, Text: "zeroth"},
					},
				}},
			}},
		}},
	}

	got, err := Aggregate(subject, Scope{SubjectID: "s", BookID: "b"})
	require.NoError(t, err)
	assert.Equal(t, "zeroth\n\nfirst\n\nsecond", got.Text)
	assert.Equal(t, 3, subject.Books[0].Chapters[0].Topics[0].Paragraphs[0].Order, "input must not be reordered")
}

func TestAggregate_Deterministic(t *testing.T) {
	scope := Scope{SubjectID: "subject-1", BookID: "book-1"}
	first, err := Aggregate(newBiologySubject(), scope)
	require.NoError(t, err)
	second, err := Aggregate(newBiologySubject(), scope)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, Fingerprint(first.Text), Fingerprint(second.Text))
}

func TestAggregate_BlankParagraphsAreNoContent(t *testing.T) {
	subject := &Subject{
		ID: "s", Title: "S",
		Books: []Book{{ID: "b", Title: "B", Chapters: []Chapter{{
			ID: "c", Title: "C",
			Topics: []Topic{{ID: "t", Title: "T", Paragraphs: []Paragraph{{Text: "   "}}}},
		}}}},
	}
	_, err := Aggregate(subject, Scope{SubjectID: "s", BookID: "b", ChapterID: "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}
