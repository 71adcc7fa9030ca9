package dto

import "github.com/noah-isme/barangay-api/internal/models"

// StartConversationResponse returns the new session and the captain's greeting.
type StartConversationResponse struct {
	SessionID   string `json:"session_id"`
	Greeting    string `json:"greeting"`
	CaptainName string `json:"captain_name"`
}

// ChatRequest sends one message to the captain.
type ChatRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required,max=4000"`
}

// ChatResponse is the captain's reply plus what was detected.
type ChatResponse struct {
	MessageID          string                    `json:"message_id"`
	Response           string                    `json:"response"`
	Intent             string                    `json:"intent"`
	Situation          string                    `json:"situation,omitempty"`
	Confidence         float64                   `json:"confidence"`
	Source             models.ResponseSource     `json:"source"`
	ReferencedPolicies []models.PolicyDocument   `json:"referenced_policies"`
	Template           *models.SituationTemplate `json:"template,omitempty"`
}

// EndConversationRequest closes a session with an optional rating.
type EndConversationRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Rating    *int   `json:"rating" validate:"omitempty,min=1,max=5"`
}

// FeedbackRequest marks a reply helpful or not.
type FeedbackRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	Helpful   *bool  `json:"helpful" validate:"required"`
}
