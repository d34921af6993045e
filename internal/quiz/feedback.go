package quiz

import (
	"fmt"
	"slices"
)

// DefaultWholeBookLabel names the "where to read" chapter for whole-book tests.
const DefaultWholeBookLabel = "Whole book"

// FeedbackScope carries the titles used to point the user back to the material.
type FeedbackScope struct {
	BookTitle string
	// ChapterTitle is the scope's chapter, empty for whole-book tests.
	ChapterTitle   string
	ChapterTitles  map[string]string
	WholeBookLabel string
}

func (s FeedbackScope) chapterTitleFor(related RelatedContent) string {
	if title, ok := s.ChapterTitles[related.ChapterID]; ok && related.ChapterID != "" {
		return title
	}
	if s.ChapterTitle != "" {
		return s.ChapterTitle
	}
	if s.WholeBookLabel != "" {
		return s.WholeBookLabel
	}
	return DefaultWholeBookLabel
}

// SynthesizeFeedback builds the summary and the mistake list in question order.
func SynthesizeFeedback(grading Grading, scope FeedbackScope) Feedback {
	mistakes := make([]Mistake, 0)
	for _, q := range grading.Questions {
		if q.IsCorrect {
			continue
		}
		mistakes = append(mistakes, Mistake{
			Question: q.Question.QuestionText,
			Explanation: fmt.Sprintf("You chose %q, but the correct answer is %q. %s",
				q.SelectedOption, q.Question.CorrectOption, q.Question.Explanation),
			WhereToRead: WhereToRead{
				BookTitle:    scope.BookTitle,
				ChapterTitle: scope.chapterTitleFor(q.Question.RelatedContent),
				Pages:        slices.Clone(q.Question.RelatedContent.Pages),
			},
		})
	}

	return Feedback{
		Summary:  summarize(grading.Result, scope, len(mistakes)),
		Mistakes: mistakes,
	}
}

func summarize(result Result, scope FeedbackScope, mistakeCount int) string {
	correct, total, percent := result.CorrectAnswers, result.TotalQuestions, result.ScorePercent

	var summary string
	switch {
	case percent >= 90:
		summary = fmt.Sprintf("Excellent work! You answered %d of %d questions correctly (%d%%). You show a strong understanding of %q.",
			correct, total, percent, scope.BookTitle)
	case percent >= 70:
		summary = fmt.Sprintf("Good result! You answered %d of %d questions correctly (%d%%). Review the topics where you made mistakes.",
			correct, total, percent)
	case percent >= 50:
		summary = fmt.Sprintf("You answered %d of %d questions correctly (%d%%). The material needs a closer review. Pay particular attention to the sections listed with the mistakes below.",
			correct, total, percent)
	default:
		reread := scope.ChapterTitle
		if reread == "" {
			reread = scope.BookTitle
		}
		summary = fmt.Sprintf("You answered %d of %d questions correctly (%d%%). Re-read %q and take the test again.",
			correct, total, percent, reread)
	}

	if mistakeCount > 0 {
		summary += fmt.Sprintf(" Total mistakes: %d. A detailed breakdown follows.", mistakeCount)
	}
	return summary
}
