package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/lectio-edu/lectio/internal/config"
	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/database"
	"github.com/lectio-edu/lectio/internal/inference/openai"
	"github.com/lectio-edu/lectio/internal/quiz"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database.Migrate() > %w", err)
	}
	return db, nil
}

func newTestService(cfg *config.Config, db *sqlx.DB, openaiClient *openai.Client) *quiz.Service {
	return quiz.NewService(
		content.NewDBRepository(db),
		quiz.NewGenerator(openaiClient),
		quiz.NewDBTestRepository(db),
		quiz.NewDBHistoryRepository(db),
		quiz.ServiceOptions{
			CacheEnabled:      quiz.CachePolicy(cfg.Quiz.CachePolicy).Enabled(openaiClient.HasCredential()),
			AllowResubmission: cfg.Quiz.AllowResubmission,
			WholeBookLabel:    cfg.Quiz.WholeBookLabel,
		},
	)
}

func newOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	return openai.NewClient(cfg.APIKey, cfg.Model,
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithTemperature(cfg.Temperature),
		openai.WithMaxRetryAttempts(cfg.MaxRetryAttempts),
	)
}
