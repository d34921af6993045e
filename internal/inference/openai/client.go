package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/lectio-edu/lectio/internal/inference"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	httpClient       *resty.Client
	apiKey           string
	model            string
	temperature      float32
	maxRetryAttempts uint
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.httpClient.SetBaseURL(baseURL)
		}
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Client) { c.temperature = temperature }
}

func WithMaxRetryAttempts(attempts uint) Option {
	return func(c *Client) { c.maxRetryAttempts = attempts }
}

// NewClient creates a client. An empty apiKey is accepted; calls then fail with inference.ErrMissingAPIKey.
func NewClient(apiKey, model string, opts ...Option) *Client {
	client := resty.New()
	client.SetBaseURL(DefaultBaseURL)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	c := &Client{
		httpClient:       client,
		apiKey:           apiKey,
		model:            model,
		temperature:      inference.DefaultTemperature,
		maxRetryAttempts: inference.DefaultMaxRetryAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client *Client) GetModel() string {
	return client.model
}

// HasCredential reports whether an API key was configured
func (client *Client) HasCredential() bool {
	return client.apiKey != ""
}

type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Index        int           `json:"index"`
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type ChoiceMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Malformed output is a hard failure, the caller decides whether to ask again
	if errors.Is(err, inference.ErrMalformedResponse) || errors.Is(err, inference.ErrMissingAPIKey) {
		return false
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	// 5xx and rate limiting
	if strings.Contains(errStr, "response error 5") || strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}

// GenerateTest implements the inference.Client interface
func (client *Client) GenerateTest(
	ctx context.Context,
	params inference.GenerateTestRequest,
) (inference.GenerateTestResponse, error) {
	if client.apiKey == "" {
		return inference.GenerateTestResponse{}, inference.ErrMissingAPIKey
	}

	var result inference.GenerateTestResponse
	if err := retry.Do(
		func() error {
			response, err := client.generateTest(ctx, params)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.GenerateTestResponse{}, err
	}
	return result, nil
}

func (client *Client) generateTest(
	ctx context.Context,
	args inference.GenerateTestRequest,
) (inference.GenerateTestResponse, error) {
	requestBody := client.getRequestBody(args)

	slog.Default().Info("generating test",
		"model", client.model,
		"subject", args.SubjectTitle,
		"book", args.BookTitle,
		"chapter", args.ChapterTitle,
		"topicsCount", len(args.Topics),
		"passagesCount", len(args.Passages),
		"excludedCount", len(args.ExcludedQuestions),
	)

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&ChatCompletionResponse{}).
		Post("/chat/completions")
	if err != nil {
		return inference.GenerateTestResponse{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.GenerateTestResponse{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*ChatCompletionResponse)
	if responseBody == nil || len(responseBody.Choices) == 0 {
		return inference.GenerateTestResponse{}, fmt.Errorf("empty response body or choices: %s", response.String())
	}

	content := responseBody.Choices[0].Message.Content
	slog.Default().Debug("openai response content",
		"request", requestBody,
		"response", responseBody,
	)

	decoded, err := decodeQuestions(content)
	if err != nil {
		slog.Default().Error("Failed to parse OpenAI response as JSON",
			"subject", args.SubjectTitle,
			"book", args.BookTitle,
			"error", err)
		return inference.GenerateTestResponse{}, err
	}
	return decoded, nil
}

// decodeQuestions extracts the JSON object between the first '{' and the last '}' of the completion
func decodeQuestions(content string) (inference.GenerateTestResponse, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end < start {
		return inference.GenerateTestResponse{}, fmt.Errorf("%w: no JSON object in %q", inference.ErrMalformedResponse, content)
	}

	var decoded struct {
		Questions *[]inference.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &decoded); err != nil {
		return inference.GenerateTestResponse{}, fmt.Errorf("%w: json.Unmarshal > %w", inference.ErrMalformedResponse, err)
	}
	if decoded.Questions == nil {
		return inference.GenerateTestResponse{}, fmt.Errorf("%w: missing questions array", inference.ErrMalformedResponse)
	}
	return inference.GenerateTestResponse{Questions: *decoded.Questions}, nil
}
