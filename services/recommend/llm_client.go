package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultModel       = "gpt-4o-mini"
	chatAttempts       = 3
	chatDefaultDelay   = 500 * time.Millisecond
	maxChatBodyBytes   = 1 << 20
	defaultTemperature = 0.7
)

var (
	ErrGeneratorNotConfigured = errors.New("text generator not configured")
	ErrEmptyCompletion        = errors.New("text generator returned no content")
)

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpc      *http.Client
	retryDelay time.Duration
}

var _ TextGenerator = (*ChatClient)(nil)

func NewChatClient(baseURL, apiKey, model string, httpc *http.Client) *ChatClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 60 * time.Second}
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &ChatClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpc:      httpc,
		retryDelay: chatDefaultDelay,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat completions returned %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", ErrGeneratorNotConfigured
	}
	endpoint, err := url.JoinPath(c.baseURL, "chat", "completions")
	if err != nil {
		return "", fmt.Errorf("build chat endpoint: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	var decoded chatResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			if c.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+c.apiKey)
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxChatBodyBytes))
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
			}
			decoded = chatResponse{}
			return json.Unmarshal(body, &decoded)
		},
		retry.Context(ctx),
		retry.Attempts(chatAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.retryable()
			}
			var syntaxErr *json.SyntaxError
			return !errors.As(err, &syntaxErr) && ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[recommend] chat completion attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", fmt.Errorf("chat completion: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return decoded.Choices[0].Message.Content, nil
}
