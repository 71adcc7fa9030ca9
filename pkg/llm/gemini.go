package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// Gemini generates replies with Google's Gemini models.
type Gemini struct {
	client *genai.Client
	opts   Options
	logger *zap.Logger
}

// NewGemini creates a Gemini-backed provider.
func NewGemini(ctx context.Context, opts Options, logger *zap.Logger) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults(defaultGeminiModel)

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Info("gemini provider initialised", zap.String("model", opts.Model), zap.Int("max_retries", opts.MaxRetries))
	return &Gemini{client: client, opts: opts, logger: logger}, nil
}

// Name identifies the provider in logs and metrics.
func (g *Gemini) Name() string { return "gemini" }

// Generate replays history as a chat session and sends the new message.
func (g *Gemini) Generate(ctx context.Context, prompt Prompt) (string, error) {
	model := g.client.GenerativeModel(g.opts.Model)
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr(float32(g.opts.Temperature)),
		MaxOutputTokens: genai.Ptr(int32(g.opts.MaxTokens)),
	}

	session := model.StartChat()
	for _, turn := range prompt.History {
		session.History = append(session.History,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.User)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.Assistant)}},
		)
	}

	return retry(ctx, g.opts, g.logger, g.Name(), func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
		resp, err := session.SendMessage(callCtx, genai.Text(prompt.Message))
		if err != nil {
			return "", fmt.Errorf("gemini API error: %w", err)
		}
		return geminiText(resp), nil
	})
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}
