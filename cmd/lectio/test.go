package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lectio-edu/lectio/internal/cli"
	"github.com/lectio-edu/lectio/internal/quiz"
)

func newTestCommand() *cobra.Command {
	testCommand := &cobra.Command{
		Use:   "test",
		Short: "Take AI generated tests in the terminal",
	}
	testCommand.AddCommand(newTestTakeCommand())
	return testCommand
}

func newTestTakeCommand() *cobra.Command {
	var userID string
	var request quiz.GenerateRequest

	command := &cobra.Command{
		Use:   "take",
		Short: "Generate or reuse a test for a book or chapter and answer it interactively",
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

			openaiClient := newOpenAIClient(cfg.OpenAI)
			defer func() {
				_ = openaiClient.Close()
			}()
			if openaiClient.HasCredential() {
				fmt.Printf("Using OpenAI provider (model: %s)\n", openaiClient.GetModel())
			}

			service := newTestService(cfg, db, openaiClient)
			return cli.NewTestSessionCLI(service, userID, os.Stdin, cmd.OutOrStdout()).Run(cmd.Context(), request)
		},
	}

	flags := command.Flags()
	flags.StringVar(&userID, "user", "", "user id the attempt is recorded for")
	flags.StringVar(&request.SubjectID, "subject", "", "subject id")
	flags.StringVar(&request.BookID, "book", "", "book id")
	flags.StringVar(&request.ChapterID, "chapter", "", "chapter id, the whole book when empty")
	flags.BoolVar(&request.FullBook, "full-book", false, "test the whole book even if --chapter is set")
	_ = command.MarkFlagRequired("user")
	_ = command.MarkFlagRequired("subject")
	_ = command.MarkFlagRequired("book")

	return command
}
