// Package cli runs a generated test interactively in the terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/lectio-edu/lectio/internal/quiz"
)

//go:generate mockgen -source=test_session.go -destination=../mocks/cli/mock_test_runner.go -package=mock_cli TestRunner

// TestRunner is the part of the test pipeline a terminal session needs.
type TestRunner interface {
	GenerateTest(ctx context.Context, userID string, req quiz.GenerateRequest) (quiz.IssuedTest, error)
	SubmitTest(ctx context.Context, userID string, req quiz.SubmitRequest) (quiz.SubmissionResult, error)
}

var errQuit = errors.New("quit")

// TestSessionCLI asks every question of one test, submits the answers and prints the feedback.
type TestSessionCLI struct {
	runner       TestRunner
	userID       string
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	bold         *color.Color
	italic       *color.Color
}

func NewTestSessionCLI(runner TestRunner, userID string, stdin io.Reader, stdout io.Writer) *TestSessionCLI {
	return &TestSessionCLI{
		runner:       runner,
		userID:       userID,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
	}
}

// Run stops early on an interrupt signal. Answers given so far are discarded.
func (cli *TestSessionCLI) Run(ctx context.Context, req quiz.GenerateRequest) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := cli.Session(ctx, req); err != nil && !errors.Is(err, errQuit) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cli.stdoutWriter, "Received interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}

func (cli *TestSessionCLI) Session(ctx context.Context, req quiz.GenerateRequest) error {
	test, err := cli.runner.GenerateTest(ctx, cli.userID, req)
	if err != nil {
		return fmt.Errorf("runner.GenerateTest() > %w", err)
	}
	_, _ = fmt.Fprintf(cli.stdoutWriter, "Test %s: %d questions. Type the option number, or 'quit' to exit.\n\n", test.ID, len(test.Questions))

	answers := make([]quiz.SubmittedAnswer, 0, len(test.Questions))
	for i, question := range test.Questions {
		selected, err := cli.ask(i+1, question)
		if err != nil {
			return err
		}
		answers = append(answers, quiz.SubmittedAnswer{QuestionText: question.QuestionText, SelectedOption: selected})
	}

	result, err := cli.runner.SubmitTest(ctx, cli.userID, quiz.SubmitRequest{TestID: test.ID, Answers: answers})
	if err != nil {
		return fmt.Errorf("runner.SubmitTest() > %w", err)
	}
	cli.printResult(result)
	return nil
}

func (cli *TestSessionCLI) ask(number int, question quiz.IssuedQuestion) (string, error) {
	_, _ = cli.bold.Fprintf(cli.stdoutWriter, "%d. %s\n", number, question.QuestionText)
	for i, option := range question.Options {
		_, _ = fmt.Fprintf(cli.stdoutWriter, "  %d) %s\n", i+1, option)
	}

	for {
		_, _ = fmt.Fprint(cli.stdoutWriter, "Answer: ")
		line, err := cli.stdinReader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", fmt.Errorf("error reading answer input: %w", err)
		}
		input := strings.TrimSpace(line)
		if input == "quit" || input == "exit" {
			_, _ = fmt.Fprintln(cli.stdoutWriter, "Test abandoned.")
			return "", errQuit
		}

		choice, convErr := strconv.Atoi(input)
		if convErr == nil && choice >= 1 && choice <= len(question.Options) {
			_, _ = fmt.Fprintln(cli.stdoutWriter)
			return question.Options[choice-1], nil
		}
		if err != nil {
			return "", fmt.Errorf("error reading answer input: %w", err)
		}
		_, _ = fmt.Fprintf(cli.stdoutWriter, "Please enter a number between 1 and %d.\n", len(question.Options))
	}
}

func (cli *TestSessionCLI) printResult(result quiz.SubmissionResult) {
	_, _ = cli.bold.Fprintf(cli.stdoutWriter, "Score: %d/%d (%d%%)\n",
		result.Result.CorrectAnswers, result.Result.TotalQuestions, result.Result.ScorePercent)
	_, _ = fmt.Fprintln(cli.stdoutWriter, result.Feedback.Summary)

	for _, answer := range result.DetailedAnswers {
		if answer.IsCorrect {
			_, _ = color.New(color.FgGreen).Fprintf(cli.stdoutWriter, "✅ %s\n", answer.QuestionText)
			continue
		}
		_, _ = color.New(color.FgRed).Fprintf(cli.stdoutWriter, "❌ %s\n", answer.QuestionText)
		_, _ = fmt.Fprintf(cli.stdoutWriter, "   your answer: %s, correct answer: %s\n", answer.SelectedOption, answer.CorrectOption)
	}

	for _, mistake := range result.Feedback.Mistakes {
		pages := make([]string, 0, len(mistake.WhereToRead.Pages))
		for _, page := range mistake.WhereToRead.Pages {
			pages = append(pages, strconv.Itoa(page))
		}
		_, _ = cli.italic.Fprintf(cli.stdoutWriter, "Read %s / %s, pages %s\n",
			mistake.WhereToRead.BookTitle, mistake.WhereToRead.ChapterTitle, strings.Join(pages, ", "))
	}
}
