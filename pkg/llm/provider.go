// Package llm talks to hosted language models used by the virtual captain.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/pkg/config"
)

// ErrEmptyResponse is returned when a provider answered without any text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Turn is one earlier exchange replayed to the model.
type Turn struct {
	User      string
	Assistant string
}

// Prompt is everything a provider needs for one completion.
type Prompt struct {
	System  string
	History []Turn
	Message string
}

// Provider generates a reply for a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Close() error
}

// Options are shared by every provider.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
}

func (o Options) withDefaults(model string) Options {
	if o.Model == "" {
		o.Model = model
	}
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 800
	}
	// Zero is a valid, deterministic temperature; config supplies 0.7 when unset.
	if o.Temperature < 0 {
		o.Temperature = 0.7
	}
	return o
}

// New builds the provider selected in cfg. It returns nil when the captain runs rule-based only.
func New(ctx context.Context, cfg config.CaptainConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxRetries:  cfg.MaxRetries,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	switch strings.ToLower(cfg.Provider) {
	case "", config.LLMProviderNone:
		return nil, nil
	case config.LLMProviderGemini:
		return NewGemini(ctx, opts, logger)
	case config.LLMProviderOpenAI:
		return NewOpenAI(opts, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func retry(ctx context.Context, opts Options, logger *zap.Logger, provider string, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying llm request", zap.String("provider", provider), zap.Int("attempt", attempt+1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
		answer, err := call(ctx)
		if err == nil {
			answer = strings.TrimSpace(answer)
			if answer == "" {
				lastErr = ErrEmptyResponse
				continue
			}
			return answer, nil
		}
		lastErr = err
		logger.Warn("llm request failed", zap.String("provider", provider), zap.Int("attempt", attempt+1), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
