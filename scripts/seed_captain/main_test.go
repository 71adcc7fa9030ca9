package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/classifier"
	"github.com/noah-isme/barangay-api/internal/models"
)

type recordingSeeder struct {
	personality *models.CaptainPersonality
	policies    []string
	templates   map[string][]string
}

func (r *recordingSeeder) UpsertPersonality(_ context.Context, p *models.CaptainPersonality) error {
	r.personality = p
	return nil
}

func (r *recordingSeeder) UpsertPolicy(_ context.Context, p *models.PolicyDocument) error {
	p.ID = "pol-" + p.Title
	r.policies = append(r.policies, p.Title)
	return nil
}

func (r *recordingSeeder) UpsertTemplate(_ context.Context, t *models.SituationTemplate, policyIDs []string) error {
	if r.templates == nil {
		r.templates = make(map[string][]string)
	}
	r.templates[t.Title] = policyIDs
	return nil
}

func TestEmbeddedSeedApplies(t *testing.T) {
	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)

	store := &recordingSeeder{}
	summary, err := apply(context.Background(), store, seed)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.policies)
	assert.Equal(t, 5, summary.templates)
	require.NotNil(t, store.personality)
	assert.True(t, store.personality.IsActive)
	assert.NotEmpty(t, store.personality.GreetingMessage)
	assert.Equal(t, []string{"pol-Noise Ordinance Policy", "pol-Complaint Filing Procedure"}, store.templates["Neighbor Dispute Resolution"])
}

func TestEmbeddedTemplatesMatchSituations(t *testing.T) {
	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)

	titles := make([]string, 0, len(seed.Templates))
	for _, tpl := range seed.Templates {
		titles = append(titles, tpl.Title)
	}
	for _, situation := range []string{
		classifier.SituationFilingComplaint,
		classifier.SituationDocumentRequest,
		classifier.SituationBusinessPermit,
		classifier.SituationNeighborDispute,
	} {
		found := false
		for _, title := range titles {
			if strings.Contains(strings.ToLower(title), strings.ToLower(situation)) {
				found = true
			}
		}
		assert.True(t, found, "no template for %s", situation)
	}
}

func TestSeedRejectsUnknownPolicy(t *testing.T) {
	seed, err := parseSeed([]byte(`
personality:
  name: Kap
templates:
  - title: Filing Complaint Guide
    policies: [Missing]
`))
	require.NoError(t, err)

	_, err = apply(context.Background(), &recordingSeeder{}, seed)
	assert.ErrorContains(t, err, "unknown policy")
}

func TestSeedRequiresPersonalityName(t *testing.T) {
	_, err := parseSeed([]byte("policies: []\n"))
	assert.Error(t, err)
}

type recordingUsers struct {
	users []*models.User
}

func (r *recordingUsers) Upsert(_ context.Context, u *models.User) error {
	r.users = append(r.users, u)
	return nil
}

func TestApplyOfficialsSkipsMissingPasswords(t *testing.T) {
	seed, err := parseSeed(defaultSeed)
	require.NoError(t, err)

	env := map[string]string{"SEED_CHAIRMAN_PASSWORD": "kapitan-pass"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	store := &recordingUsers{}
	seeded, skipped, err := applyOfficials(context.Background(), store, seed.Officials, lookup)
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.Equal(t, []string{"kalihim"}, skipped)
	require.Len(t, store.users, 1)
	assert.Equal(t, models.RoleChairman, store.users[0].Role)
	assert.NotEqual(t, "kapitan-pass", store.users[0].PasswordHash)
	assert.True(t, store.users[0].Active)
}

func TestSeedRejectsUnknownOfficialRole(t *testing.T) {
	_, err := parseSeed([]byte(`
personality:
  name: Kap
officials:
  - username: admin
    role: admin
`))
	assert.Error(t, err)
}
