package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageRowColumns = []string{"id", "conversation_id", "user_message", "captain_response", "intent_detected", "confidence_score",
	"source", "referenced_policies", "was_helpful", "created_at"}

func TestRecentMessagesOldestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaptainRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(messageRowColumns).
		AddRow("m1", "conv", "hello", "hi", "greeting", 0.75, "rule_based", []byte(`[]`), nil, now.Add(-time.Minute)).
		AddRow("m2", "conv", "permit?", "steps", "business", 0.9, "llm", []byte(`["p1"]`), true, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2) recent ORDER BY created_at ASC")).
		WithArgs("conv", 5).
		WillReturnRows(rows)

	messages, err := repo.RecentMessages(context.Background(), "conv", 5)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, []string{"p1"}, []string(messages[1].ReferencedPolicies))
	require.NotNil(t, messages[1].WasHelpful)
	assert.True(t, *messages[1].WasHelpful)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPolicyReferencesSkipsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaptainRepository(db)

	require.NoError(t, repo.IncrementPolicyReferences(context.Background(), nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE policy_documents SET times_referenced = times_referenced + 1 WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.IncrementPolicyReferences(context.Background(), []string{"p1", "p2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveTemplateLoadsRelatedPolicies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaptainRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM situation_templates WHERE is_active = TRUE AND title ILIKE")).
		WithArgs("Business Permit").
		WillReturnRows(sqlmock.NewRows([]string{"id", "situation_type", "title", "description", "recommended_steps",
			"required_documents", "estimated_timeline", "times_used", "is_active"}).
			AddRow("t1", "business", "Business Permit Application", "", "1. Apply", "DTI", "3-5 days", 4, true))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN situation_template_policies tp ON tp.policy_id = p.id")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "category", "content", "summary", "keywords", "ordinance_number",
			"effective_date", "is_active", "times_referenced", "created_by", "created_at", "updated_at"}).
			AddRow("p1", "Business Clearance", "procedure", "", "Clearance rules", "business,permit", "ORD-1", nil, true, 0, nil, now, now))

	template, err := repo.FindActiveTemplate(context.Background(), "Business Permit")
	require.NoError(t, err)
	assert.Equal(t, "Business Permit Application", template.Title)
	require.Len(t, template.RelatedPolicies, 1)
	assert.Equal(t, "ORD-1", template.RelatedPolicies[0].OrdinanceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetMessageFeedbackMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaptainRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE conversation_messages SET was_helpful = $2 WHERE id = $1")).
		WithArgs("missing", true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetMessageFeedback(context.Background(), "missing", true)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCaptainAnalytics(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCaptainRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "avg_rating"}).AddRow(4, 1, 4.25))
	mock.ExpectQuery(regexp.QuoteMeta("FROM conversation_messages")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "helpful"}).AddRow(10, 6))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY intent_detected")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"intent", "count"}).AddRow("complaint", 5).AddRow("general", 3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM conversations ORDER BY started_at DESC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_id", "started_at", "ended_at", "is_active",
			"user_situation", "conversation_topic", "satisfaction_rating"}))

	analytics, err := repo.Analytics(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 4, analytics.TotalConversations)
	assert.Equal(t, 10, analytics.TotalMessages)
	assert.InDelta(t, 4.25, analytics.AverageSatisfaction, 0.001)
	require.Len(t, analytics.TopIntents, 2)
	assert.Equal(t, "complaint", analytics.TopIntents[0].Intent)
	assert.Empty(t, analytics.RecentConversations)
	assert.NoError(t, mock.ExpectationsWereMet())
}
