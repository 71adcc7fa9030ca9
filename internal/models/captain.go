package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultIntent is reported when no intent keyword matched.
const DefaultIntent = "general"

// ResponseSource identifies which responder produced a captain reply.
type ResponseSource string

const (
	ResponseSourceLLM       ResponseSource = "llm"
	ResponseSourceRuleBased ResponseSource = "rule_based"
)

// PolicyCategory classifies a policy document.
type PolicyCategory string

const (
	PolicyCategoryOrdinance   PolicyCategory = "ordinance"
	PolicyCategoryResolution  PolicyCategory = "resolution"
	PolicyCategoryProcedure   PolicyCategory = "procedure"
	PolicyCategoryRequirement PolicyCategory = "requirement"
	PolicyCategoryGuideline   PolicyCategory = "guideline"
	PolicyCategoryFAQ         PolicyCategory = "faq"
)

// Conversation is one chat session between a resident and the captain.
type Conversation struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	SessionID          string     `db:"session_id" json:"session_id"`
	StartedAt          time.Time  `db:"started_at" json:"started_at"`
	EndedAt            *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	UserSituation      string     `db:"user_situation" json:"user_situation,omitempty"`
	ConversationTopic  string     `db:"conversation_topic" json:"conversation_topic,omitempty"`
	SatisfactionRating *int       `db:"satisfaction_rating" json:"satisfaction_rating,omitempty"`
}

// ConversationMessage stores one exchange inside a conversation.
type ConversationMessage struct {
	ID                 string         `db:"id" json:"id"`
	ConversationID     string         `db:"conversation_id" json:"conversation_id"`
	UserMessage        string         `db:"user_message" json:"user_message"`
	CaptainResponse    string         `db:"captain_response" json:"captain_response"`
	IntentDetected     string         `db:"intent_detected" json:"intent_detected"`
	ConfidenceScore    float64        `db:"confidence_score" json:"confidence_score"`
	Source             ResponseSource `db:"source" json:"source"`
	ReferencedPolicies StringList     `db:"referenced_policies" json:"referenced_policies"`
	WasHelpful         *bool          `db:"was_helpful" json:"was_helpful,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// PolicyDocument is a barangay policy the captain may cite.
type PolicyDocument struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Category        PolicyCategory `db:"category" json:"category"`
	Content         string         `db:"content" json:"content"`
	Summary         string         `db:"summary" json:"summary"`
	Keywords        string         `db:"keywords" json:"keywords"`
	OrdinanceNumber string         `db:"ordinance_number" json:"ordinance_number,omitempty"`
	EffectiveDate   *time.Time     `db:"effective_date" json:"effective_date,omitempty"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	TimesReferenced int            `db:"times_referenced" json:"times_referenced"`
	CreatedBy       *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// SituationTemplate is step-by-step guidance for a recognised situation.
type SituationTemplate struct {
	ID                string           `db:"id" json:"id"`
	SituationType     string           `db:"situation_type" json:"situation_type"`
	Title             string           `db:"title" json:"title"`
	Description       string           `db:"description" json:"description"`
	RecommendedSteps  string           `db:"recommended_steps" json:"recommended_steps"`
	RequiredDocuments string           `db:"required_documents" json:"required_documents,omitempty"`
	EstimatedTimeline string           `db:"estimated_timeline" json:"estimated_timeline,omitempty"`
	TimesUsed         int              `db:"times_used" json:"times_used"`
	IsActive          bool             `db:"is_active" json:"is_active"`
	RelatedPolicies   []PolicyDocument `db:"-" json:"related_policies,omitempty"`
}

// CaptainPersonality configures greeting and system prompt of the captain.
type CaptainPersonality struct {
	ID                   string `db:"id" json:"id"`
	Name                 string `db:"name" json:"name"`
	GreetingMessage      string `db:"greeting_message" json:"greeting_message"`
	Tone                 string `db:"tone" json:"tone"`
	LanguageStyle        string `db:"language_style" json:"language_style"`
	ProactiveSuggestions bool   `db:"proactive_suggestions" json:"proactive_suggestions"`
	AskFollowupQuestions bool   `db:"ask_followup_questions" json:"ask_followup_questions"`
	EmpathyLevel         int    `db:"empathy_level" json:"empathy_level"`
	SystemPrompt         string `db:"system_prompt" json:"system_prompt"`
	IsActive             bool   `db:"is_active" json:"is_active"`
}

// AdviceLog records situation-specific advice handed to a resident.
type AdviceLog struct {
	ID                string     `db:"id" json:"id"`
	MessageID         string     `db:"message_id" json:"message_id"`
	SituationDetected string     `db:"situation_detected" json:"situation_detected"`
	AdviceGiven       string     `db:"advice_given" json:"advice_given"`
	PoliciesCited     StringList `db:"policies_cited" json:"policies_cited"`
	WasAccepted       *bool      `db:"was_accepted" json:"was_accepted,omitempty"`
	UserFeedback      string     `db:"user_feedback" json:"user_feedback,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// IntentCount is one row of the top intents report.
type IntentCount struct {
	Intent string `db:"intent" json:"intent"`
	Count  int    `db:"count" json:"count"`
}

// CaptainAnalytics aggregates conversation usage for officials.
type CaptainAnalytics struct {
	TotalConversations  int            `json:"total_conversations"`
	ActiveConversations int            `json:"active_conversations"`
	TotalMessages       int            `json:"total_messages"`
	AverageSatisfaction float64        `json:"average_satisfaction"`
	HelpfulMessages     int            `json:"helpful_messages"`
	TopIntents          []IntentCount  `json:"top_intents"`
	RecentConversations []Conversation `json:"recent_conversations"`
}

// StringList persists a list of strings as JSONB.
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	*l = out
	return nil
}
