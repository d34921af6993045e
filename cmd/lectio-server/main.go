package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/lectio-edu/lectio/internal/auth"
	"github.com/lectio-edu/lectio/internal/config"
	"github.com/lectio-edu/lectio/internal/content"
	"github.com/lectio-edu/lectio/internal/database"
	"github.com/lectio-edu/lectio/internal/inference/openai"
	"github.com/lectio-edu/lectio/internal/quiz"
	"github.com/lectio-edu/lectio/internal/server"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("config.Load() > %w", err)
	}
	setupLogger(cfg.Log)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("LECTIO_JWT_SECRET environment variable is required")
	}
	if cfg.OpenAI.APIKey == "" {
		slog.Default().Warn("OPENAI_API_KEY is not set, only cached tests can be served")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := database.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		return fmt.Errorf("database.Migrate() > %w", err)
	}

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTemperature(cfg.OpenAI.Temperature),
		openai.WithMaxRetryAttempts(cfg.OpenAI.MaxRetryAttempts),
	)
	defer func() {
		_ = openaiClient.Close()
	}()

	handler, err := newHandler(cfg, db, openaiClient)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Default().Info("starting server", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver, "model", openaiClient.GetModel())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Default().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("httpServer.Shutdown() > %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
	}
}

func newHandler(cfg *config.Config, db *sqlx.DB, openaiClient *openai.Client) (http.Handler, error) {
	contents := content.NewDBRepository(db)
	service := quiz.NewService(
		contents,
		quiz.NewGenerator(openaiClient),
		quiz.NewDBTestRepository(db),
		quiz.NewDBHistoryRepository(db),
		quiz.ServiceOptions{
			CacheEnabled:      quiz.CachePolicy(cfg.Quiz.CachePolicy).Enabled(openaiClient.HasCredential()),
			AllowResubmission: cfg.Quiz.AllowResubmission,
			WholeBookLabel:    cfg.Quiz.WholeBookLabel,
		},
	)

	srv, err := server.New(service, contents, auth.NewService(cfg.Auth.JWTSecret), server.Options{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("server.New() > %w", err)
	}
	return srv.Handler(), nil
}

// setupLogger configures the default logger from the log section of the config
func setupLogger(cfg config.LogConfig) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		logLevel = slog.LevelInfo
	}

	options := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
	}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, options)
	} else {
		handler = slog.NewTextHandler(os.Stdout, options)
	}
	slog.SetDefault(slog.New(handler))
}
