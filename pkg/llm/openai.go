package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint (OpenAI, Groq, OpenRouter).
type OpenAI struct {
	opts       Options
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(opts Options, logger *zap.Logger) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults(defaultOpenAIModel)
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	logger.Info("openai provider initialised", zap.String("model", opts.Model), zap.String("base_url", baseURL))
	return &OpenAI{
		opts:       opts,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logger,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (o *OpenAI) Name() string { return "openai" }

// Generate sends system prompt, history and message as one chat completion.
func (o *OpenAI) Generate(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]chatMessage, 0, len(prompt.History)*2+2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	for _, turn := range prompt.History {
		messages = append(messages,
			chatMessage{Role: "user", Content: turn.User},
			chatMessage{Role: "assistant", Content: turn.Assistant},
		)
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.Message})

	payload, err := json.Marshal(chatRequest{
		Model:       o.opts.Model,
		Messages:    messages,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	return retry(ctx, o.opts, o.logger, o.Name(), func(ctx context.Context) (string, error) {
		return o.complete(ctx, payload)
	})
}

func (o *OpenAI) complete(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.opts.APIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API returned status %d: %s", resp.StatusCode, truncate(string(body), 256))
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return decoded.Choices[0].Message.Content, nil
}

// Close is a no-op; the HTTP client holds no resources.
func (o *OpenAI) Close() error { return nil }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
