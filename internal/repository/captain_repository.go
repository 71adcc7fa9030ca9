package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/barangay-api/internal/models"
)

const (
	policyColumns       = `id, title, category, content, summary, keywords, ordinance_number, effective_date, is_active, times_referenced, created_by, created_at, updated_at`
	templateColumns     = `id, situation_type, title, description, recommended_steps, required_documents, estimated_timeline, times_used, is_active`
	conversationColumns = `id, user_id, session_id, started_at, ended_at, is_active, user_situation, conversation_topic, satisfaction_rating`
	messageColumns      = `id, conversation_id, user_message, captain_response, intent_detected, confidence_score, source, referenced_policies, was_helpful, created_at`
	personalityColumns  = `id, name, greeting_message, tone, language_style, proactive_suggestions, ask_followup_questions, empathy_level, system_prompt, is_active`
)

// CaptainRepository persists the virtual captain's knowledge base and conversations.
type CaptainRepository struct {
	db *sqlx.DB
}

// NewCaptainRepository creates a new CaptainRepository.
func NewCaptainRepository(db *sqlx.DB) *CaptainRepository {
	return &CaptainRepository{db: db}
}

// ActivePersonality returns the first active personality.
func (r *CaptainRepository) ActivePersonality(ctx context.Context) (*models.CaptainPersonality, error) {
	const query = `SELECT ` + personalityColumns + ` FROM captain_personalities WHERE is_active = TRUE ORDER BY created_at ASC LIMIT 1`
	var personality models.CaptainPersonality
	if err := r.db.GetContext(ctx, &personality, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active personality: %w", err)
	}
	return &personality, nil
}

// UpsertPersonality inserts or updates a personality by name.
func (r *CaptainRepository) UpsertPersonality(ctx context.Context, personality *models.CaptainPersonality) error {
	if personality.ID == "" {
		personality.ID = uuid.NewString()
	}
	const query = `INSERT INTO captain_personalities (` + personalityColumns + `)
VALUES (:id, :name, :greeting_message, :tone, :language_style, :proactive_suggestions, :ask_followup_questions, :empathy_level, :system_prompt, :is_active)
ON CONFLICT (name) DO UPDATE SET greeting_message = EXCLUDED.greeting_message, tone = EXCLUDED.tone,
language_style = EXCLUDED.language_style, proactive_suggestions = EXCLUDED.proactive_suggestions,
ask_followup_questions = EXCLUDED.ask_followup_questions, empathy_level = EXCLUDED.empathy_level,
system_prompt = EXCLUDED.system_prompt, is_active = EXCLUDED.is_active`
	if _, err := r.db.NamedExecContext(ctx, query, personality); err != nil {
		return fmt.Errorf("upsert personality: %w", err)
	}
	return nil
}

// CreateConversation starts a new conversation.
func (r *CaptainRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.NewString()
	}
	if conversation.StartedAt.IsZero() {
		conversation.StartedAt = time.Now().UTC()
	}
	const query = `INSERT INTO conversations (` + conversationColumns + `)
VALUES (:id, :user_id, :session_id, :started_at, :ended_at, :is_active, :user_situation, :conversation_topic, :satisfaction_rating)`
	if _, err := r.db.NamedExecContext(ctx, query, conversation); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// FindConversationBySession returns the conversation owning sessionID.
func (r *CaptainRepository) FindConversationBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE session_id = $1`
	var conversation models.Conversation
	if err := r.db.GetContext(ctx, &conversation, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conversation, nil
}

// SetConversationTopic records the first detected situation; later calls are no-ops.
func (r *CaptainRepository) SetConversationTopic(ctx context.Context, id, topic string) error {
	const query = `UPDATE conversations SET conversation_topic = $2, user_situation = $2 WHERE id = $1 AND conversation_topic = ''`
	if _, err := r.db.ExecContext(ctx, query, id, topic); err != nil {
		return fmt.Errorf("set conversation topic: %w", err)
	}
	return nil
}

// EndConversation closes the conversation and stores the optional rating.
func (r *CaptainRepository) EndConversation(ctx context.Context, id string, endedAt time.Time, rating *int) error {
	const query = `UPDATE conversations SET is_active = FALSE, ended_at = $2, satisfaction_rating = COALESCE($3, satisfaction_rating) WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, endedAt, rating)
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	return expectAffected(result, "conversation end")
}

// RecentMessages returns the last limit messages of a conversation, oldest first.
func (r *CaptainRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]models.ConversationMessage, error) {
	query := `SELECT * FROM (SELECT ` + messageColumns + ` FROM conversation_messages WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2) recent ORDER BY created_at ASC`
	messages := make([]models.ConversationMessage, 0, limit)
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit); err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	return messages, nil
}

// CreateMessage stores one exchange.
func (r *CaptainRepository) CreateMessage(ctx context.Context, message *models.ConversationMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO conversation_messages (` + messageColumns + `)
VALUES (:id, :conversation_id, :user_message, :captain_response, :intent_detected, :confidence_score, :source, :referenced_policies, :was_helpful, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MessageOwner returns the user id of the conversation a message belongs to.
func (r *CaptainRepository) MessageOwner(ctx context.Context, messageID string) (string, error) {
	const query = `SELECT c.user_id FROM conversation_messages m JOIN conversations c ON c.id = m.conversation_id WHERE m.id = $1`
	var owner string
	if err := r.db.GetContext(ctx, &owner, query, messageID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("find message owner: %w", err)
	}
	return owner, nil
}

// SetMessageFeedback records whether a reply helped.
func (r *CaptainRepository) SetMessageFeedback(ctx context.Context, messageID string, helpful bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE conversation_messages SET was_helpful = $2 WHERE id = $1`, messageID, helpful)
	if err != nil {
		return fmt.Errorf("set message feedback: %w", err)
	}
	return expectAffected(result, "message feedback")
}

// CreateAdviceLog stores situation-specific advice.
func (r *CaptainRepository) CreateAdviceLog(ctx context.Context, log *models.AdviceLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO advice_logs (id, message_id, situation_detected, advice_given, policies_cited, was_accepted, user_feedback, created_at)
VALUES (:id, :message_id, :situation_detected, :advice_given, :policies_cited, :was_accepted, :user_feedback, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create advice log: %w", err)
	}
	return nil
}

// ActivePolicies returns active policies, newest first.
func (r *CaptainRepository) ActivePolicies(ctx context.Context) ([]models.PolicyDocument, error) {
	const query = `SELECT ` + policyColumns + ` FROM policy_documents WHERE is_active = TRUE ORDER BY created_at DESC`
	policies := make([]models.PolicyDocument, 0)
	if err := r.db.SelectContext(ctx, &policies, query); err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}
	return policies, nil
}

// ListPolicies returns every policy, newest first.
func (r *CaptainRepository) ListPolicies(ctx context.Context) ([]models.PolicyDocument, error) {
	const query = `SELECT ` + policyColumns + ` FROM policy_documents ORDER BY created_at DESC`
	policies := make([]models.PolicyDocument, 0)
	if err := r.db.SelectContext(ctx, &policies, query); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return policies, nil
}

// IncrementPolicyReferences bumps times_referenced for the given policies.
func (r *CaptainRepository) IncrementPolicyReferences(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE policy_documents SET times_referenced = times_referenced + 1 WHERE id = ANY($1)`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("increment policy references: %w", err)
	}
	return nil
}

// UpsertPolicy inserts or updates a policy by title.
func (r *CaptainRepository) UpsertPolicy(ctx context.Context, policy *models.PolicyDocument) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now
	const query = `INSERT INTO policy_documents (` + policyColumns + `)
VALUES (:id, :title, :category, :content, :summary, :keywords, :ordinance_number, :effective_date, :is_active, :times_referenced, :created_by, :created_at, :updated_at)
ON CONFLICT (title) DO UPDATE SET category = EXCLUDED.category, content = EXCLUDED.content, summary = EXCLUDED.summary,
keywords = EXCLUDED.keywords, ordinance_number = EXCLUDED.ordinance_number, effective_date = EXCLUDED.effective_date,
is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, policy)
	if err != nil {
		return fmt.Errorf("upsert policy: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	if rows.Next() {
		if err := rows.Scan(&policy.ID); err != nil {
			return fmt.Errorf("scan policy id: %w", err)
		}
	}
	return rows.Err()
}

// FindActiveTemplate returns the first active template whose title contains situation.
func (r *CaptainRepository) FindActiveTemplate(ctx context.Context, situation string) (*models.SituationTemplate, error) {
	const query = `SELECT ` + templateColumns + ` FROM situation_templates WHERE is_active = TRUE AND title ILIKE '%' || $1 || '%' ORDER BY title ASC LIMIT 1`
	var template models.SituationTemplate
	if err := r.db.GetContext(ctx, &template, query, situation); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find situation template: %w", err)
	}

	const relatedQuery = `SELECT p.id, p.title, p.category, p.content, p.summary, p.keywords, p.ordinance_number, p.effective_date,
p.is_active, p.times_referenced, p.created_by, p.created_at, p.updated_at
FROM policy_documents p
JOIN situation_template_policies tp ON tp.policy_id = p.id
WHERE tp.template_id = $1 AND p.is_active = TRUE
ORDER BY p.created_at DESC LIMIT 3`
	template.RelatedPolicies = make([]models.PolicyDocument, 0)
	if err := r.db.SelectContext(ctx, &template.RelatedPolicies, relatedQuery, template.ID); err != nil {
		return nil, fmt.Errorf("list template policies: %w", err)
	}
	return &template, nil
}

// IncrementTemplateUsage bumps times_used for a template.
func (r *CaptainRepository) IncrementTemplateUsage(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE situation_templates SET times_used = times_used + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment template usage: %w", err)
	}
	return nil
}

// UpsertTemplate inserts or updates a template by title and replaces its policy links.
func (r *CaptainRepository) UpsertTemplate(ctx context.Context, template *models.SituationTemplate, policyIDs []string) (err error) {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin template upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertQuery = `INSERT INTO situation_templates (` + templateColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (title) DO UPDATE SET situation_type = EXCLUDED.situation_type, description = EXCLUDED.description,
recommended_steps = EXCLUDED.recommended_steps, required_documents = EXCLUDED.required_documents,
estimated_timeline = EXCLUDED.estimated_timeline, is_active = EXCLUDED.is_active
RETURNING id`
	if err = tx.GetContext(ctx, &template.ID, upsertQuery, template.ID, template.SituationType, template.Title, template.Description,
		template.RecommendedSteps, template.RequiredDocuments, template.EstimatedTimeline, template.TimesUsed, template.IsActive); err != nil {
		return fmt.Errorf("upsert situation template: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM situation_template_policies WHERE template_id = $1`, template.ID); err != nil {
		return fmt.Errorf("clear template policies: %w", err)
	}
	for _, policyID := range policyIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO situation_template_policies (template_id, policy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, template.ID, policyID); err != nil {
			return fmt.Errorf("link template policy: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit template upsert: %w", err)
	}
	return nil
}

// Analytics aggregates conversation usage.
func (r *CaptainRepository) Analytics(ctx context.Context, topIntents, recent int) (*models.CaptainAnalytics, error) {
	analytics := &models.CaptainAnalytics{}

	var totals struct {
		Total  int             `db:"total"`
		Active int             `db:"active"`
		Avg    sql.NullFloat64 `db:"avg_rating"`
	}
	const totalsQuery = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active, AVG(satisfaction_rating)::float8 AS avg_rating FROM conversations`
	if err := r.db.GetContext(ctx, &totals, totalsQuery); err != nil {
		return nil, fmt.Errorf("conversation totals: %w", err)
	}
	analytics.TotalConversations = totals.Total
	analytics.ActiveConversations = totals.Active
	if totals.Avg.Valid {
		analytics.AverageSatisfaction = totals.Avg.Float64
	}

	var messages struct {
		Total   int `db:"total"`
		Helpful int `db:"helpful"`
	}
	if err := r.db.GetContext(ctx, &messages, `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE was_helpful) AS helpful FROM conversation_messages`); err != nil {
		return nil, fmt.Errorf("message totals: %w", err)
	}
	analytics.TotalMessages = messages.Total
	analytics.HelpfulMessages = messages.Helpful

	analytics.TopIntents = make([]models.IntentCount, 0)
	const intentsQuery = `SELECT intent_detected AS intent, COUNT(*) AS count FROM conversation_messages GROUP BY intent_detected ORDER BY count DESC, intent ASC LIMIT $1`
	if err := r.db.SelectContext(ctx, &analytics.TopIntents, intentsQuery, topIntents); err != nil {
		return nil, fmt.Errorf("top intents: %w", err)
	}

	analytics.RecentConversations = make([]models.Conversation, 0)
	recentQuery := `SELECT ` + conversationColumns + ` FROM conversations ORDER BY started_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &analytics.RecentConversations, recentQuery, recent); err != nil {
		return nil, fmt.Errorf("recent conversations: %w", err)
	}
	return analytics, nil
}
