package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lectio-edu/lectio/internal/content"
)

func newContentCommand() *cobra.Command {
	contentCommand := &cobra.Command{
		Use:   "content",
		Short: "Content administration commands",
	}

	contentCommand.AddCommand(newContentImportCommand())
	contentCommand.AddCommand(newContentListCommand())

	return contentCommand
}

func newContentImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import subject trees from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := content.LoadYAML(args[0])
			if err != nil {
				return fmt.Errorf("content.LoadYAML() > %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repo := content.NewDBRepository(db)
			out := cmd.OutOrStdout()
			for _, subject := range subjects {
				created, err := content.Import(cmd.Context(), repo, subject)
				if err != nil {
					return fmt.Errorf("content.Import() > %w", err)
				}
				slog.Default().Debug("imported subject", "id", created.ID, "title", created.Title)
				if _, err := fmt.Fprintf(out, "%s %s (%s)\n", color.GreenString("imported"), created.Title, created.ID); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				for _, book := range created.Books {
					if _, err := fmt.Fprintf(out, "  book %s (%s), %d chapters\n", book.Title, book.ID, len(book.Chapters)); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
				}
			}
			return nil
		},
	}
}

func newContentListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subjects with their books and chapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = db.Close()
			}()

			repo := content.NewDBRepository(db)
			summaries, err := repo.ListSubjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("repo.ListSubjects() > %w", err)
			}

			bold := color.New(color.Bold)
			out := cmd.OutOrStdout()
			for _, summary := range summaries {
				subject, err := repo.FindSubject(cmd.Context(), summary.ID)
				if err != nil {
					return fmt.Errorf("repo.FindSubject(%s) > %w", summary.ID, err)
				}
				if subject == nil {
					continue
				}
				if _, err := bold.Fprintf(out, "%s (%s)\n", subject.Title, subject.ID); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				for _, book := range subject.Books {
					if _, err := fmt.Fprintf(out, "  %s (%s)\n", book.Title, book.ID); err != nil {
						return fmt.Errorf("failed to write output: %w", err)
					}
					for _, chapter := range book.Chapters {
						if _, err := fmt.Fprintf(out, "    %d. %s (%s)\n", chapter.Order, chapter.Title, chapter.ID); err != nil {
							return fmt.Errorf("failed to write output: %w", err)
						}
					}
				}
			}
			return nil
		},
	}
}
