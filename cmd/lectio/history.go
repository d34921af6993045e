package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lectio-edu/lectio/internal/quiz"
	"github.com/lectio-edu/lectio/internal/statistics"
)

func newHistoryCommand() *cobra.Command {
	var userID string
	var subjectID, sortBy, order string
	var limit int

	command := &cobra.Command{
		Use:   "history",
		Short: "Show test attempts of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := openTestService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := service.History(cmd.Context(), userID, quiz.HistoryQuery{
				SubjectID: subjectID,
				SortBy:    quiz.HistorySortField(sortBy),
				Order:     quiz.SortOrder(order),
				Limit:     limit,
			})
			if err != nil {
				return fmt.Errorf("service.History() > %w", err)
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}

	flags := command.Flags()
	flags.StringVar(&userID, "user", "", "user id")
	flags.StringVar(&subjectID, "subject", "", "only show attempts of this subject")
	flags.StringVar(&sortBy, "sort", string(quiz.SortByCreatedAt), "sort field. Options: createdAt, scorePercent")
	flags.StringVar(&order, "order", string(quiz.OrderDesc), "sort order. Options: asc, desc")
	flags.IntVar(&limit, "limit", 0, "maximum number of attempts, 0 for all")
	_ = command.MarkFlagRequired("user")

	return command
}

func newStatsCommand() *cobra.Command {
	var userID string

	command := &cobra.Command{
		Use:   "stats",
		Short: "Show learning statistics of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := openTestService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := service.Stats(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("service.Stats() > %w", err)
			}
			return writeStats(cmd.OutOrStdout(), stats)
		},
	}

	command.Flags().StringVar(&userID, "user", "", "user id")
	_ = command.MarkFlagRequired("user")

	return command
}

// openTestService builds a service for read-only commands. The AI client is never called.
func openTestService(cmd *cobra.Command) (*quiz.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	openaiClient := newOpenAIClient(cfg.OpenAI)
	closeFn := func() {
		_ = openaiClient.Close()
		_ = db.Close()
	}
	return newTestService(cfg, db, openaiClient), closeFn, nil
}

func scoreColor(score int) *color.Color {
	switch {
	case score >= 70:
		return color.New(color.FgGreen)
	case score >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func writeHistory(w io.Writer, entries []quiz.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No test attempts yet.")
		return err
	}
	for _, entry := range entries {
		scope := entry.BookID
		if entry.ChapterID != "" {
			scope += "/" + entry.ChapterID
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %s/%s  %s (%d/%d)\n",
			entry.CreatedAt.Format("2006-01-02 15:04"),
			entry.ID,
			entry.SubjectID,
			scope,
			scoreColor(entry.Result.ScorePercent).Sprintf("%3d%%", entry.Result.ScorePercent),
			entry.Result.CorrectAnswers,
			entry.Result.TotalQuestions,
		); err != nil {
			return err
		}
	}
	return nil
}

func writeStats(w io.Writer, stats statistics.UserStats) error {
	bold := color.New(color.Bold)
	if _, err := bold.Fprintf(w, "Tests taken: %d, average score: %d%%\n", stats.TotalTests, stats.AverageScore); err != nil {
		return err
	}
	if stats.BestResult != nil {
		if _, err := fmt.Fprintf(w, "Best:  %s %s\n", color.GreenString("%d%%", stats.BestResult.Score), stats.BestResult.Date.Format("2006-01-02")); err != nil {
			return err
		}
	}
	if stats.WorstResult != nil {
		if _, err := fmt.Fprintf(w, "Worst: %s %s\n", color.RedString("%d%%", stats.WorstResult.Score), stats.WorstResult.Date.Format("2006-01-02")); err != nil {
			return err
		}
	}
	for _, subjectID := range slices.Sorted(maps.Keys(stats.TestsBySubject)) {
		subject := stats.TestsBySubject[subjectID]
		if _, err := fmt.Fprintf(w, "  %s: %d tests, average %.1f%%\n", subjectID, subject.Count, subject.AverageScore); err != nil {
			return err
		}
	}
	if len(stats.RecentProgress) > 0 {
		if _, err := fmt.Fprint(w, "Recent:"); err != nil {
			return err
		}
		for _, point := range stats.RecentProgress {
			if _, err := fmt.Fprintf(w, " %s", scoreColor(point.Score).Sprintf("%d%%", point.Score)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
