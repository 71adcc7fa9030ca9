package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/models"
	"github.com/noah-isme/barangay-api/pkg/llm"
)

const (
	ruleBasedConfidence = 0.75
	llmConfidence       = 0.9
	maxHistoryTurns     = 5
	defaultSystemPrompt = "You are a Virtual Barangay Captain assistant for a Philippine barangay. Provide realistic, informative, and empathetic responses."
)

var promptGuidelines = []string{
	"Mix Filipino and English naturally (Taglish) for authenticity",
	"Provide specific, actionable steps with clear timelines",
	"Reference actual barangay procedures and requirements",
	"Show empathy and understanding of residents' situations",
	"Include office hours, contact details, and who to approach",
	"Mention fees, required documents, and processing times",
	"Use emojis sparingly for clarity (📋 for documents, ⏱️ for time, 📍 for location)",
	"Be conversational but professional",
	"Ask follow-up questions to better understand their situation",
}

// AdviceRequest is the classified context a responder answers from.
type AdviceRequest struct {
	Message     string
	Intent      string
	Situation   string
	Policies    []models.PolicyDocument
	Template    *models.SituationTemplate
	UserName    string
	Role        models.UserRole
	Personality *models.CaptainPersonality
	History     []llm.Turn
}

// Advice is a generated captain reply.
type Advice struct {
	Text       string
	Confidence float64
	Source     models.ResponseSource
}

// Responder produces a reply for a classified message.
type Responder interface {
	Respond(ctx context.Context, req AdviceRequest) (Advice, error)
}

// RuleBasedResponder assembles deterministic replies from canned text, policies and templates.
type RuleBasedResponder struct{}

// Respond never fails.
func (RuleBasedResponder) Respond(_ context.Context, req AdviceRequest) (Advice, error) {
	var b strings.Builder
	if body, ok := cannedReplies[req.Intent]; ok {
		b.WriteString(body)
	} else {
		b.WriteString(genericReply)
	}

	if len(req.Policies) > 0 {
		b.WriteString("\n\n" + sectionRule + "\n**📋 Relevant Barangay Policies:**\n\n")
		for i, policy := range req.Policies {
			fmt.Fprintf(&b, "%d. **%s**\n   %s\n", i+1, policy.Title, policy.Summary)
			if policy.OrdinanceNumber != "" {
				fmt.Fprintf(&b, "   *(Reference: %s)*\n", policy.OrdinanceNumber)
			}
			b.WriteString("\n")
		}
	}

	if t := req.Template; t != nil {
		fmt.Fprintf(&b, "\n%s\n**🎯 Specific Guidance for: %s**\n\n**Step-by-Step Process:**\n%s\n", sectionRule, t.Title, t.RecommendedSteps)
		if t.RequiredDocuments != "" {
			fmt.Fprintf(&b, "\n**📄 Required Documents:**\n%s\n", t.RequiredDocuments)
		}
		if t.EstimatedTimeline != "" {
			fmt.Fprintf(&b, "\n**⏱️ Expected Timeline:** %s\n", t.EstimatedTimeline)
		}
		if len(t.RelatedPolicies) > 0 {
			b.WriteString("\n**📚 Related Policies:**\n")
			for i, policy := range t.RelatedPolicies {
				if i == 3 {
					break
				}
				fmt.Fprintf(&b, "• %s\n", policy.Title)
			}
		}
	}

	b.WriteString(contactSection)
	return Advice{Text: b.String(), Confidence: ruleBasedConfidence, Source: models.ResponseSourceRuleBased}, nil
}

// LLMResponder forwards the classified context to a hosted model.
type LLMResponder struct {
	provider llm.Provider
	timeout  time.Duration
	metrics  *MetricsService
	now      func() time.Time
}

// NewLLMResponder wraps provider. A zero timeout leaves the deadline to the provider.
func NewLLMResponder(provider llm.Provider, timeout time.Duration, metrics *MetricsService) *LLMResponder {
	return &LLMResponder{provider: provider, timeout: timeout, metrics: metrics, now: time.Now}
}

// Respond calls the provider once.
func (r *LLMResponder) Respond(ctx context.Context, req AdviceRequest) (Advice, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	history := req.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	started := r.now()
	answer, err := r.provider.Generate(ctx, llm.Prompt{
		System:  buildSystemPrompt(req),
		History: history,
		Message: req.Message,
	})
	outcome := "ok"
	if err == nil && strings.TrimSpace(answer) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		outcome = "error"
	}
	r.metrics.ObserveLLMCall(r.provider.Name(), outcome, r.now().Sub(started))
	if err != nil {
		return Advice{}, err
	}
	return Advice{Text: strings.TrimSpace(answer), Confidence: llmConfidence, Source: models.ResponseSourceLLM}, nil
}

func buildSystemPrompt(req AdviceRequest) string {
	var b strings.Builder
	if req.Personality != nil && strings.TrimSpace(req.Personality.SystemPrompt) != "" {
		b.WriteString(req.Personality.SystemPrompt)
	} else {
		b.WriteString(defaultSystemPrompt)
	}

	b.WriteString("\n\nGuidelines:\n")
	for _, line := range promptGuidelines {
		b.WriteString("- " + line + "\n")
	}
	fmt.Fprintf(&b, "\n\nYou are speaking with: %s (Role: %s)\n", req.UserName, req.Role)

	if len(req.Policies) > 0 {
		b.WriteString("\n\nRelevant Barangay Policies and Information:\n")
		for _, policy := range req.Policies {
			fmt.Fprintf(&b, "\n📋 %s\nSummary: %s\n", policy.Title, policy.Summary)
			if policy.OrdinanceNumber != "" {
				fmt.Fprintf(&b, "Reference: %s\n", policy.OrdinanceNumber)
			}
		}
	}

	if t := req.Template; t != nil {
		fmt.Fprintf(&b, "\n\n🎯 Situation-Specific Guidance for '%s':\n\nStep-by-step process:\n%s\n", t.Title, t.RecommendedSteps)
		if t.RequiredDocuments != "" {
			fmt.Fprintf(&b, "\nRequired Documents:\n%s\n", t.RequiredDocuments)
		}
		if t.EstimatedTimeline != "" {
			fmt.Fprintf(&b, "\nExpected Timeline: %s\n", t.EstimatedTimeline)
		}
	}
	return b.String()
}

// FallbackResponder tries primary and answers from fallback whenever primary fails.
type FallbackResponder struct {
	primary  Responder
	fallback Responder
	logger   *zap.Logger
}

// NewFallbackResponder returns the rule-based responder alone when primary is nil.
func NewFallbackResponder(primary Responder, logger *zap.Logger) *FallbackResponder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackResponder{primary: primary, fallback: RuleBasedResponder{}, logger: logger}
}

// Respond always produces an answer.
func (r *FallbackResponder) Respond(ctx context.Context, req AdviceRequest) (Advice, error) {
	if r.primary != nil {
		advice, err := r.primary.Respond(ctx, req)
		if err == nil && advice.Text != "" {
			return advice, nil
		}
		r.logger.Warn("captain responder failed, using rule-based reply", zap.String("intent", req.Intent), zap.Error(err))
	}
	return r.fallback.Respond(ctx, req)
}
