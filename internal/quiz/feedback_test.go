package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func membraneFeedbackScope() FeedbackScope {
	return FeedbackScope{
		BookTitle:     "Cells",
		ChapterTitle:  "Membrane",
		ChapterTitles: map[string]string{chapterMembrane: "Membrane", chapterNucleus: "Nucleus"},
	}
}

func TestSynthesizeFeedback(t *testing.T) {
	test := newStoredTest(QuestionsPerTest)

	tests := []struct {
		name          string
		correct       int
		wantContains  []string
		wantNotSuffix bool
		wantMistakes  int
	}{
		{
			name:          "excellent",
			correct:       10,
			wantContains:  []string{"Excellent work!", "10 of 10", "(100%)", `"Cells"`},
			wantNotSuffix: true,
		},
		{
			name:         "good",
			correct:      7,
			wantContains: []string{"Good result!", "7 of 10", "(70%)", "Total mistakes: 3."},
			wantMistakes: 3,
		},
		{
			name:         "needs review",
			correct:      5,
			wantContains: []string{"closer review", "5 of 10", "(50%)", "Total mistakes: 5."},
			wantMistakes: 5,
		},
		{
			name:         "re-read the chapter",
			correct:      4,
			wantContains: []string{`Re-read "Membrane"`, "4 of 10", "(40%)", "Total mistakes: 6."},
			wantMistakes: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grading, err := Grade(test, answersFor(test, tt.correct))
			require.NoError(t, err)

			got := SynthesizeFeedback(grading, membraneFeedbackScope())
			for _, want := range tt.wantContains {
				assert.Contains(t, got.Summary, want)
			}
			if tt.wantNotSuffix {
				assert.NotContains(t, got.Summary, "Total mistakes")
			}
			assert.Len(t, got.Mistakes, tt.wantMistakes)
			assert.NotNil(t, got.Mistakes)
		})
	}
}

func TestSynthesizeFeedback_Mistake(t *testing.T) {
	test := newStoredTest(2)
	test.Questions[1].RelatedContent = RelatedContent{ChapterID: chapterNucleus, Pages: []int{30}}

	grading, err := Grade(test, answersFor(test, 0))
	require.NoError(t, err)
	got := SynthesizeFeedback(grading, membraneFeedbackScope())

	assert.Equal(t, []Mistake{
		{
			Question:    "Question 1?",
			Explanation: `You chose "B1", but the correct answer is "A1". Explanation 1.`,
			WhereToRead: WhereToRead{BookTitle: "Cells", ChapterTitle: "Membrane", Pages: []int{12}},
		},
		{
			Question:    "Question 2?",
			Explanation: `You chose "B2", but the correct answer is "A2". Explanation 2.`,
			WhereToRead: WhereToRead{BookTitle: "Cells", ChapterTitle: "Nucleus", Pages: []int{30}},
		},
	}, got.Mistakes)
}

func TestFeedbackScope_ChapterTitleFor(t *testing.T) {
	tests := []struct {
		name    string
		scope   FeedbackScope
		related RelatedContent
		want    string
	}{
		{
			name:    "question chapter",
			scope:   membraneFeedbackScope(),
			related: RelatedContent{ChapterID: chapterNucleus},
			want:    "Nucleus",
		},
		{
			name:    "unknown chapter falls back to the scope chapter",
			scope:   membraneFeedbackScope(),
			related: RelatedContent{ChapterID: "gone"},
			want:    "Membrane",
		},
		{
			name:  "whole book label",
			scope: FeedbackScope{BookTitle: "Cells", WholeBookLabel: "Entire book"},
			want:  "Entire book",
		},
		{
			name:  "default whole book label",
			scope: FeedbackScope{BookTitle: "Cells"},
			want:  DefaultWholeBookLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.chapterTitleFor(tt.related))
		})
	}
}
