package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/classifier"
	"github.com/noah-isme/barangay-api/internal/models"
	"github.com/noah-isme/barangay-api/pkg/llm"
)

func TestRuleBasedResponderSections(t *testing.T) {
	advice, err := RuleBasedResponder{}.Respond(context.Background(), AdviceRequest{
		Intent: classifier.IntentDocument,
		Policies: []models.PolicyDocument{
			{Title: "Clearance Fees", Summary: "P50 per clearance", OrdinanceNumber: "2022-01"},
			{Title: "Residency Rules", Summary: "Six months minimum"},
		},
		Template: &models.SituationTemplate{
			Title:             classifier.SituationDocumentRequest,
			RecommendedSteps:  "1. Fill out form",
			RequiredDocuments: "Valid ID",
			EstimatedTimeline: "1-2 days",
			RelatedPolicies:   []models.PolicyDocument{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseSourceRuleBased, advice.Source)
	assert.Equal(t, 0.75, advice.Confidence)

	text := advice.Text
	assert.True(t, strings.HasPrefix(text, cannedReplies[classifier.IntentDocument]))
	assert.Contains(t, text, "1. **Clearance Fees**\n   P50 per clearance\n   *(Reference: 2022-01)*\n")
	assert.Contains(t, text, "2. **Residency Rules**\n   Six months minimum\n\n")
	assert.Contains(t, text, "**📄 Required Documents:**\nValid ID\n")
	assert.Contains(t, text, "**⏱️ Expected Timeline:** 1-2 days\n")
	assert.Contains(t, text, "• C\n")
	assert.NotContains(t, text, "• D\n")
	assert.True(t, strings.HasSuffix(text, contactSection))
}

func TestRuleBasedResponderGenericFallback(t *testing.T) {
	advice, err := RuleBasedResponder{}.Respond(context.Background(), AdviceRequest{Intent: classifier.IntentGeneral})
	require.NoError(t, err)
	assert.Equal(t, genericReply+contactSection, advice.Text)
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt(AdviceRequest{
		UserName:    "Maria",
		Role:        models.RoleResident,
		Personality: &models.CaptainPersonality{SystemPrompt: "Ikaw si Kapitan."},
		Policies:    []models.PolicyDocument{{Title: "Curfew", Summary: "Minors home by 10PM", OrdinanceNumber: "2021-03"}},
		Template:    &models.SituationTemplate{Title: "Emergency", RecommendedSteps: "Call 911"},
	})
	assert.True(t, strings.HasPrefix(prompt, "Ikaw si Kapitan.\n\nGuidelines:\n- Mix Filipino"))
	assert.Contains(t, prompt, "You are speaking with: Maria (Role: resident)")
	assert.Contains(t, prompt, "📋 Curfew\nSummary: Minors home by 10PM\nReference: 2021-03\n")
	assert.Contains(t, prompt, "Situation-Specific Guidance for 'Emergency'")

	assert.True(t, strings.HasPrefix(buildSystemPrompt(AdviceRequest{}), defaultSystemPrompt))
}

func TestLLMResponderTrimsHistory(t *testing.T) {
	provider := &providerStub{answer: "ok"}
	history := make([]llm.Turn, 8)
	for i := range history {
		history[i] = llm.Turn{User: string(rune('a' + i))}
	}

	advice, err := NewLLMResponder(provider, 0, nil).Respond(context.Background(), AdviceRequest{Message: "hi", History: history})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseSourceLLM, advice.Source)
	require.Len(t, provider.prompts[0].History, maxHistoryTurns)
	assert.Equal(t, "d", provider.prompts[0].History[0].User)
}

func TestLLMResponderEmptyAnswerIsError(t *testing.T) {
	_, err := NewLLMResponder(&providerStub{answer: "   "}, 0, nil).Respond(context.Background(), AdviceRequest{Message: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestFallbackResponderWithoutPrimary(t *testing.T) {
	advice, err := NewFallbackResponder(nil, nil).Respond(context.Background(), AdviceRequest{Intent: classifier.IntentHelp})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseSourceRuleBased, advice.Source)
}
