package quiz

import (
	"github.com/lectio-edu/lectio/internal/apperr"
)

// GradedQuestion pairs a stored question with the option the user picked.
type GradedQuestion struct {
	Question       Question
	SelectedOption string
	IsCorrect      bool
}

// Grading is the outcome of comparing one submission with a stored test, in stored question order.
type Grading struct {
	Questions []GradedQuestion
	Result    Result
}

// Answers returns the graded answers in the shape kept in history.
func (g Grading) Answers() []Answer {
	answers := make([]Answer, 0, len(g.Questions))
	for _, q := range g.Questions {
		answers = append(answers, Answer{
			Question:       q.Question.QuestionText,
			SelectedOption: q.SelectedOption,
			IsCorrect:      q.IsCorrect,
		})
	}
	return answers
}

// Grade matches answers to questions by exact question text and scores them. No partial credit.
func Grade(test GeneratedTest, answers []SubmittedAnswer) (Grading, error) {
	if len(answers) != len(test.Questions) {
		return Grading{}, apperr.InvalidInput("Expected %d answers, received %d", len(test.Questions), len(answers))
	}

	// first answer wins when a question text is submitted twice
	selected := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, ok := selected[a.QuestionText]; !ok {
			selected[a.QuestionText] = a.SelectedOption
		}
	}

	grading := Grading{Questions: make([]GradedQuestion, 0, len(test.Questions))}
	correct := 0
	for _, q := range test.Questions {
		option, ok := selected[q.QuestionText]
		if !ok {
			return Grading{}, apperr.InvalidInput("Missing answer for question: %q", q.QuestionText)
		}
		isCorrect := option == q.CorrectOption
		if isCorrect {
			correct++
		}
		grading.Questions = append(grading.Questions, GradedQuestion{
			Question:       q,
			SelectedOption: option,
			IsCorrect:      isCorrect,
		})
	}

	grading.Result = Result{
		TotalQuestions: len(test.Questions),
		CorrectAnswers: correct,
		ScorePercent:   ScorePercent(correct, len(test.Questions)),
	}
	return grading, nil
}

// ScorePercent is round-half-up of 100*correct/total. A test without questions scores 0.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}
