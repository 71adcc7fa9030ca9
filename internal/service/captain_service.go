package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/internal/classifier"
	"github.com/noah-isme/barangay-api/internal/dto"
	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
	"github.com/noah-isme/barangay-api/pkg/llm"
)

const (
	defaultCaptainName     = "Virtual Captain"
	defaultCaptainGreeting = "Hello! I'm your Virtual Barangay Captain. How can I assist you today?"
	defaultHistoryLimit    = 5
	analyticsTopIntents    = 10
	analyticsRecent        = 20
)

type captainStore interface {
	ActivePersonality(ctx context.Context) (*models.CaptainPersonality, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	FindConversationBySession(ctx context.Context, sessionID string) (*models.Conversation, error)
	SetConversationTopic(ctx context.Context, id, topic string) error
	EndConversation(ctx context.Context, id string, endedAt time.Time, rating *int) error
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.ConversationMessage, error)
	CreateMessage(ctx context.Context, message *models.ConversationMessage) error
	MessageOwner(ctx context.Context, messageID string) (string, error)
	SetMessageFeedback(ctx context.Context, messageID string, helpful bool) error
	CreateAdviceLog(ctx context.Context, log *models.AdviceLog) error
	ActivePolicies(ctx context.Context) ([]models.PolicyDocument, error)
	ListPolicies(ctx context.Context) ([]models.PolicyDocument, error)
	IncrementPolicyReferences(ctx context.Context, ids []string) error
	FindActiveTemplate(ctx context.Context, situation string) (*models.SituationTemplate, error)
	IncrementTemplateUsage(ctx context.Context, id string) error
	Analytics(ctx context.Context, topIntents, recent int) (*models.CaptainAnalytics, error)
}

// CaptainService runs the virtual captain conversations.
type CaptainService struct {
	store        captainStore
	responder    Responder
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	historyLimit int
	now          func() time.Time
}

// NewCaptainService wires the captain. A nil responder answers rule-based only.
func NewCaptainService(store captainStore, responder Responder, metrics *MetricsService, historyLimit int, validate *validator.Validate, logger *zap.Logger) *CaptainService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if responder == nil {
		responder = NewFallbackResponder(nil, logger)
	}
	if historyLimit <= 0 || historyLimit > maxHistoryTurns {
		historyLimit = defaultHistoryLimit
	}
	return &CaptainService{
		store:        store,
		responder:    responder,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// StartConversation opens a new session for a resident.
func (s *CaptainService) StartConversation(ctx context.Context, actor *models.JWTClaims) (*dto.StartConversationResponse, error) {
	if err := requireResident(actor); err != nil {
		return nil, err
	}

	conversation := &models.Conversation{
		UserID:    actor.UserID,
		SessionID: uuid.NewString(),
		StartedAt: s.now().UTC(),
		IsActive:  true,
	}
	if err := s.store.CreateConversation(ctx, conversation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start conversation")
	}

	resp := &dto.StartConversationResponse{
		SessionID:   conversation.SessionID,
		Greeting:    defaultCaptainGreeting,
		CaptainName: defaultCaptainName,
	}
	if personality := s.personality(ctx); personality != nil {
		if personality.GreetingMessage != "" {
			resp.Greeting = personality.GreetingMessage
		}
		if personality.Name != "" {
			resp.CaptainName = personality.Name
		}
	}
	return resp, nil
}

// Chat answers one resident message inside an active session.
func (s *CaptainService) Chat(ctx context.Context, req dto.ChatRequest, actor *models.JWTClaims) (*dto.ChatResponse, error) {
	if err := requireResident(actor); err != nil {
		return nil, err
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "message is required")
	}
	conversation, err := s.ownConversation(ctx, req.SessionID, actor)
	if err != nil {
		return nil, err
	}
	if !conversation.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "conversation has ended")
	}

	intent := classifier.DetectIntent(req.Message)
	situation := classifier.DetectSituation(req.Message)
	policies := s.matchPolicies(ctx, req.Message)
	template := s.template(ctx, situation)

	advice, err := s.responder.Respond(ctx, AdviceRequest{
		Message:     req.Message,
		Intent:      intent,
		Situation:   situation,
		Policies:    policies,
		Template:    template,
		UserName:    actor.FullName,
		Role:        actor.Role,
		Personality: s.personality(ctx),
		History:     s.history(ctx, conversation.ID),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate response")
	}

	policyIDs := make(models.StringList, 0, len(policies))
	for _, policy := range policies {
		policyIDs = append(policyIDs, policy.ID)
	}
	message := &models.ConversationMessage{
		ConversationID:     conversation.ID,
		UserMessage:        req.Message,
		CaptainResponse:    advice.Text,
		IntentDetected:     intent,
		ConfidenceScore:    advice.Confidence,
		Source:             advice.Source,
		ReferencedPolicies: policyIDs,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	s.metrics.RecordCaptainResponse(advice.Source, intent)

	if situation != "" {
		s.recordAdvice(ctx, conversation.ID, message, situation, policyIDs)
	}

	return &dto.ChatResponse{
		MessageID:          message.ID,
		Response:           advice.Text,
		Intent:             intent,
		Situation:          situation,
		Confidence:         advice.Confidence,
		Source:             advice.Source,
		ReferencedPolicies: policies,
		Template:           template,
	}, nil
}

// EndConversation closes the caller's session and stores an optional 1-5 rating.
func (s *CaptainService) EndConversation(ctx context.Context, req dto.EndConversationRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end conversation payload")
	}
	conversation, err := s.ownConversation(ctx, req.SessionID, actor)
	if err != nil {
		return err
	}
	if err := s.store.EndConversation(ctx, conversation.ID, s.now().UTC(), req.Rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end conversation")
	}
	return nil
}

// MessageFeedback records whether a reply helped.
func (s *CaptainService) MessageFeedback(ctx context.Context, req dto.FeedbackRequest, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}
	owner, err := s.store.MessageOwner(ctx, req.MessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load message")
	}
	if owner != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only rate your own conversation")
	}
	if err := s.store.SetMessageFeedback(ctx, req.MessageID, *req.Helpful); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	return nil
}

// Analytics summarises captain usage for officials.
func (s *CaptainService) Analytics(ctx context.Context, actor *models.JWTClaims) (*models.CaptainAnalytics, error) {
	if err := requireOfficial(actor); err != nil {
		return nil, err
	}
	analytics, err := s.store.Analytics(ctx, analyticsTopIntents, analyticsRecent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load captain analytics")
	}
	return analytics, nil
}

// ListPolicies returns every policy document, active or not.
func (s *CaptainService) ListPolicies(ctx context.Context, actor *models.JWTClaims) ([]models.PolicyDocument, error) {
	if err := requireOfficial(actor); err != nil {
		return nil, err
	}
	policies, err := s.store.ListPolicies(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list policies")
	}
	return policies, nil
}

func (s *CaptainService) ownConversation(ctx context.Context, sessionID string, actor *models.JWTClaims) (*models.Conversation, error) {
	conversation, err := s.store.FindConversationBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conversation")
	}
	if conversation.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "conversation not found")
	}
	return conversation, nil
}

// matchPolicies degrades to no citations when the policy table cannot be read.
func (s *CaptainService) matchPolicies(ctx context.Context, message string) []models.PolicyDocument {
	active, err := s.store.ActivePolicies(ctx)
	if err != nil {
		s.logger.Warn("failed to load policies", zap.Error(err))
		return []models.PolicyDocument{}
	}
	matched := classifier.MatchPolicies(message, active, classifier.MaxPolicies)
	if len(matched) == 0 {
		return []models.PolicyDocument{}
	}
	ids := make([]string, 0, len(matched))
	for _, policy := range matched {
		ids = append(ids, policy.ID)
	}
	if err := s.store.IncrementPolicyReferences(ctx, ids); err != nil {
		s.logger.Warn("failed to count policy references", zap.Error(err))
	}
	return matched
}

func (s *CaptainService) template(ctx context.Context, situation string) *models.SituationTemplate {
	if situation == "" {
		return nil
	}
	template, err := s.store.FindActiveTemplate(ctx, situation)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load situation template", zap.String("situation", situation), zap.Error(err))
		}
		return nil
	}
	if err := s.store.IncrementTemplateUsage(ctx, template.ID); err != nil {
		s.logger.Warn("failed to count template usage", zap.String("template_id", template.ID), zap.Error(err))
	}
	return template
}

func (s *CaptainService) personality(ctx context.Context) *models.CaptainPersonality {
	personality, err := s.store.ActivePersonality(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load captain personality", zap.Error(err))
		}
		return nil
	}
	return personality
}

func (s *CaptainService) history(ctx context.Context, conversationID string) []llm.Turn {
	messages, err := s.store.RecentMessages(ctx, conversationID, s.historyLimit)
	if err != nil {
		s.logger.Warn("failed to load conversation history", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil
	}
	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, llm.Turn{User: m.UserMessage, Assistant: m.CaptainResponse})
	}
	return turns
}

func (s *CaptainService) recordAdvice(ctx context.Context, conversationID string, message *models.ConversationMessage, situation string, policyIDs models.StringList) {
	entry := &models.AdviceLog{
		MessageID:         message.ID,
		SituationDetected: situation,
		AdviceGiven:       message.CaptainResponse,
		PoliciesCited:     policyIDs,
		CreatedAt:         message.CreatedAt,
	}
	if err := s.store.CreateAdviceLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record advice log", zap.String("message_id", message.ID), zap.Error(err))
	}
	if err := s.store.SetConversationTopic(ctx, conversationID, situation); err != nil {
		s.logger.Warn("failed to set conversation topic", zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

func requireResident(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleResident {
		return appErrors.Clone(appErrors.ErrForbidden, "the virtual captain is available to residents only")
	}
	return nil
}

func requireOfficial(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.Role.IsOfficial() {
		return appErrors.Clone(appErrors.ErrForbidden, "available to barangay officials only")
	}
	return nil
}
