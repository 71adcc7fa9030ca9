package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/classifier"
	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/llm"
)

type captainStoreStub struct {
	personality     *models.CaptainPersonality
	conversations   map[string]*models.Conversation
	messages        []models.ConversationMessage
	adviceLogs      []models.AdviceLog
	policies        []models.PolicyDocument
	referenced      []string
	templates       map[string]*models.SituationTemplate
	templateUses    map[string]int
	topics          map[string]string
	ended           map[string]*int
	feedback        map[string]bool
	messageOwners   map[string]string
	analyticsCalled bool
}

func newCaptainStoreStub() *captainStoreStub {
	return &captainStoreStub{
		conversations: make(map[string]*models.Conversation),
		templates:     make(map[string]*models.SituationTemplate),
		templateUses:  make(map[string]int),
		topics:        make(map[string]string),
		ended:         make(map[string]*int),
		feedback:      make(map[string]bool),
		messageOwners: make(map[string]string),
	}
}

func (s *captainStoreStub) ActivePersonality(ctx context.Context) (*models.CaptainPersonality, error) {
	if s.personality == nil {
		return nil, sql.ErrNoRows
	}
	return s.personality, nil
}

func (s *captainStoreStub) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = "conv-" + conversation.SessionID
	copied := *conversation
	s.conversations[conversation.SessionID] = &copied
	return nil
}

func (s *captainStoreStub) FindConversationBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	conversation, ok := s.conversations[sessionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *conversation
	return &copied, nil
}

func (s *captainStoreStub) SetConversationTopic(ctx context.Context, id, topic string) error {
	if _, ok := s.topics[id]; !ok {
		s.topics[id] = topic
	}
	return nil
}

func (s *captainStoreStub) EndConversation(ctx context.Context, id string, endedAt time.Time, rating *int) error {
	s.ended[id] = rating
	for _, c := range s.conversations {
		if c.ID == id {
			c.IsActive = false
			c.EndedAt = &endedAt
		}
	}
	return nil
}

func (s *captainStoreStub) RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.ConversationMessage, error) {
	var out []models.ConversationMessage
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *captainStoreStub) CreateMessage(ctx context.Context, message *models.ConversationMessage) error {
	message.ID = "msg-" + string(rune('a'+len(s.messages)))
	s.messages = append(s.messages, *message)
	return nil
}

func (s *captainStoreStub) MessageOwner(ctx context.Context, messageID string) (string, error) {
	owner, ok := s.messageOwners[messageID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return owner, nil
}

func (s *captainStoreStub) SetMessageFeedback(ctx context.Context, messageID string, helpful bool) error {
	s.feedback[messageID] = helpful
	return nil
}

func (s *captainStoreStub) CreateAdviceLog(ctx context.Context, log *models.AdviceLog) error {
	s.adviceLogs = append(s.adviceLogs, *log)
	return nil
}

func (s *captainStoreStub) ActivePolicies(ctx context.Context) ([]models.PolicyDocument, error) {
	return s.policies, nil
}

func (s *captainStoreStub) ListPolicies(ctx context.Context) ([]models.PolicyDocument, error) {
	return s.policies, nil
}

func (s *captainStoreStub) IncrementPolicyReferences(ctx context.Context, ids []string) error {
	s.referenced = append(s.referenced, ids...)
	return nil
}

func (s *captainStoreStub) FindActiveTemplate(ctx context.Context, situation string) (*models.SituationTemplate, error) {
	template, ok := s.templates[situation]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return template, nil
}

func (s *captainStoreStub) IncrementTemplateUsage(ctx context.Context, id string) error {
	s.templateUses[id]++
	return nil
}

func (s *captainStoreStub) Analytics(ctx context.Context, topIntents, recent int) (*models.CaptainAnalytics, error) {
	s.analyticsCalled = true
	return &models.CaptainAnalytics{TotalConversations: len(s.conversations)}, nil
}

type providerStub struct {
	answer  string
	err     error
	prompts []llm.Prompt
}

func (p *providerStub) Name() string { return "stub" }

func (p *providerStub) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.answer, p.err
}

func (p *providerStub) Close() error { return nil }

func startSession(t *testing.T, svc *CaptainService) string {
	t.Helper()
	resp, err := svc.StartConversation(context.Background(), resident)
	require.NoError(t, err)
	return resp.SessionID
}

func TestCaptainServiceStartConversation(t *testing.T) {
	store := newCaptainStoreStub()
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)

	resp, err := svc.StartConversation(context.Background(), resident)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, defaultCaptainGreeting, resp.Greeting)
	assert.Equal(t, defaultCaptainName, resp.CaptainName)

	store.personality = &models.CaptainPersonality{Name: "Kapitan Ben", GreetingMessage: "Magandang araw!"}
	resp, err = svc.StartConversation(context.Background(), resident)
	require.NoError(t, err)
	assert.Equal(t, "Kapitan Ben", resp.CaptainName)
	assert.Equal(t, "Magandang araw!", resp.Greeting)

	_, err = svc.StartConversation(context.Background(), secretary)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestCaptainServiceChatRuleBased(t *testing.T) {
	store := newCaptainStoreStub()
	store.policies = []models.PolicyDocument{
		{ID: "pol-1", Title: "Noise Ordinance", Summary: "Quiet hours 10PM-6AM", Keywords: "ingay, noise, videoke", OrdinanceNumber: "2023-07"},
		{ID: "pol-2", Title: "Waste Segregation", Summary: "Segregate at source", Keywords: "basura"},
	}
	store.templates[classifier.SituationNeighborDispute] = &models.SituationTemplate{
		ID:               "tpl-1",
		Title:            classifier.SituationNeighborDispute,
		RecommendedSteps: "1. Talk to your neighbor\n2. File at the Lupon",
	}
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)
	session := startSession(t, svc)

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{SessionID: session, Message: "Gusto kong ireklamo ang maingay na kapitbahay"}, resident)
	require.NoError(t, err)
	assert.Equal(t, classifier.IntentComplaint, resp.Intent)
	assert.Equal(t, classifier.SituationNeighborDispute, resp.Situation)
	assert.Equal(t, models.ResponseSourceRuleBased, resp.Source)
	assert.Equal(t, ruleBasedConfidence, resp.Confidence)
	require.Len(t, resp.ReferencedPolicies, 1)
	assert.Equal(t, "pol-1", resp.ReferencedPolicies[0].ID)
	assert.Contains(t, resp.Response, "Noise Ordinance")
	assert.Contains(t, resp.Response, "Specific Guidance for: Neighbor Dispute")
	assert.True(t, strings.HasSuffix(resp.Response, contactSection))

	assert.Equal(t, []string{"pol-1"}, store.referenced)
	assert.Equal(t, 1, store.templateUses["tpl-1"])
	require.Len(t, store.messages, 1)
	assert.Equal(t, models.StringList{"pol-1"}, store.messages[0].ReferencedPolicies)
	require.Len(t, store.adviceLogs, 1)
	assert.Equal(t, classifier.SituationNeighborDispute, store.adviceLogs[0].SituationDetected)
	assert.Equal(t, classifier.SituationNeighborDispute, store.topics["conv-"+session])
}

func TestCaptainServiceChatGeneralSkipsAdvice(t *testing.T) {
	store := newCaptainStoreStub()
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)
	session := startSession(t, svc)

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{SessionID: session, Message: "xyz"}, resident)
	require.NoError(t, err)
	assert.Equal(t, classifier.IntentGeneral, resp.Intent)
	assert.Empty(t, resp.Situation)
	assert.True(t, strings.HasPrefix(resp.Response, genericReply))
	assert.Empty(t, resp.ReferencedPolicies)
	assert.Empty(t, store.adviceLogs)
	assert.Empty(t, store.topics)
}

func TestCaptainServiceChatUsesLLMWithHistory(t *testing.T) {
	store := newCaptainStoreStub()
	provider := &providerStub{answer: "  Sige po, tutulungan ko kayo.  "}
	responder := NewFallbackResponder(NewLLMResponder(provider, time.Second, nil), nil)
	svc := NewCaptainService(store, responder, nil, 0, nil, nil)
	session := startSession(t, svc)

	_, err := svc.Chat(context.Background(), dto.ChatRequest{SessionID: session, Message: "hello"}, resident)
	require.NoError(t, err)
	resp, err := svc.Chat(context.Background(), dto.ChatRequest{SessionID: session, Message: "kailangan ko ng barangay clearance"}, resident)
	require.NoError(t, err)

	assert.Equal(t, models.ResponseSourceLLM, resp.Source)
	assert.Equal(t, llmConfidence, resp.Confidence)
	assert.Equal(t, "Sige po, tutulungan ko kayo.", resp.Response)
	require.Len(t, provider.prompts, 2)
	last := provider.prompts[1]
	require.Len(t, last.History, 1)
	assert.Equal(t, "hello", last.History[0].User)
	assert.Contains(t, last.System, "You are speaking with: Juan Dela Cruz (Role: resident)")
}

func TestCaptainServiceChatFallsBackWhenLLMFails(t *testing.T) {
	store := newCaptainStoreStub()
	provider := &providerStub{err: errors.New("quota exceeded")}
	svc := NewCaptainService(store, NewFallbackResponder(NewLLMResponder(provider, 0, nil), nil), nil, 0, nil, nil)
	session := startSession(t, svc)

	resp, err := svc.Chat(context.Background(), dto.ChatRequest{SessionID: session, Message: "hello po"}, resident)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseSourceRuleBased, resp.Source)
	assert.True(t, strings.HasPrefix(resp.Response, cannedReplies[classifier.IntentGreeting]))
}

func TestCaptainServiceChatGuards(t *testing.T) {
	store := newCaptainStoreStub()
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)
	session := startSession(t, svc)
	ctx := context.Background()

	_, err := svc.Chat(ctx, dto.ChatRequest{SessionID: session, Message: "   "}, resident)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Chat(ctx, dto.ChatRequest{SessionID: "unknown", Message: "hi"}, resident)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Chat(ctx, dto.ChatRequest{SessionID: session, Message: "hi"}, otherResident)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Chat(ctx, dto.ChatRequest{SessionID: session, Message: "hi"}, chairman)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	rating := 5
	require.NoError(t, svc.EndConversation(ctx, dto.EndConversationRequest{SessionID: session, Rating: &rating}, resident))
	require.NotNil(t, store.ended["conv-"+session])
	assert.Equal(t, 5, *store.ended["conv-"+session])

	_, err = svc.Chat(ctx, dto.ChatRequest{SessionID: session, Message: "hi"}, resident)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestCaptainServiceEndConversationRejectsBadRating(t *testing.T) {
	store := newCaptainStoreStub()
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)
	session := startSession(t, svc)

	rating := 9
	err := svc.EndConversation(context.Background(), dto.EndConversationRequest{SessionID: session, Rating: &rating}, resident)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCaptainServiceMessageFeedback(t *testing.T) {
	store := newCaptainStoreStub()
	store.messageOwners["msg-1"] = resident.UserID
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)
	helpful := true

	require.NoError(t, svc.MessageFeedback(context.Background(), dto.FeedbackRequest{MessageID: "msg-1", Helpful: &helpful}, resident))
	assert.True(t, store.feedback["msg-1"])

	err := svc.MessageFeedback(context.Background(), dto.FeedbackRequest{MessageID: "msg-1", Helpful: &helpful}, otherResident)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.MessageFeedback(context.Background(), dto.FeedbackRequest{MessageID: "msg-9", Helpful: &helpful}, resident)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	err = svc.MessageFeedback(context.Background(), dto.FeedbackRequest{MessageID: "msg-1"}, resident)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCaptainServiceOfficialViews(t *testing.T) {
	store := newCaptainStoreStub()
	store.policies = []models.PolicyDocument{{ID: "pol-1", Title: "Curfew"}}
	svc := NewCaptainService(store, nil, nil, 0, nil, nil)

	_, err := svc.Analytics(context.Background(), resident)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	analytics, err := svc.Analytics(context.Background(), chairman)
	require.NoError(t, err)
	assert.NotNil(t, analytics)
	assert.True(t, store.analyticsCalled)

	policies, err := svc.ListPolicies(context.Background(), secretary)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
}
