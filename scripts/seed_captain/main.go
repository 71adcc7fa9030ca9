// Command seed_captain loads the captain personality, policy documents,
// situation templates and the initial barangay officials from a YAML file into
// the database. Records are upserted by name, title or username, so the command
// can be re-run after editing the file.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/barangay-api/internal/models"
	"github.com/noah-isme/barangay-api/internal/repository"
	"github.com/noah-isme/barangay-api/migrations"
	"github.com/noah-isme/barangay-api/pkg/config"
	"github.com/noah-isme/barangay-api/pkg/database"
	"github.com/noah-isme/barangay-api/pkg/logger"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Personality seedPersonality `yaml:"personality"`
	Policies    []seedPolicy    `yaml:"policies"`
	Templates   []seedTemplate  `yaml:"templates"`
	Officials   []seedOfficial  `yaml:"officials"`
}

// seedOfficial reads its initial password from the named environment variable
// so credentials never live in the seed file.
type seedOfficial struct {
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	FullName    string `yaml:"full_name"`
	Role        string `yaml:"role"`
	PasswordEnv string `yaml:"password_env"`
}

type seedPersonality struct {
	Name                 string `yaml:"name"`
	Greeting             string `yaml:"greeting"`
	Tone                 string `yaml:"tone"`
	LanguageStyle        string `yaml:"language_style"`
	ProactiveSuggestions bool   `yaml:"proactive_suggestions"`
	AskFollowupQuestions bool   `yaml:"ask_followup_questions"`
	EmpathyLevel         int    `yaml:"empathy_level"`
	SystemPrompt         string `yaml:"system_prompt"`
}

type seedPolicy struct {
	Title           string `yaml:"title"`
	Category        string `yaml:"category"`
	OrdinanceNumber string `yaml:"ordinance_number"`
	Summary         string `yaml:"summary"`
	Content         string `yaml:"content"`
	Keywords        string `yaml:"keywords"`
}

type seedTemplate struct {
	SituationType     string   `yaml:"situation_type"`
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	RecommendedSteps  string   `yaml:"recommended_steps"`
	RequiredDocuments string   `yaml:"required_documents"`
	EstimatedTimeline string   `yaml:"estimated_timeline"`
	Policies          []string `yaml:"policies"`
}

type captainSeeder interface {
	UpsertPersonality(ctx context.Context, personality *models.CaptainPersonality) error
	UpsertPolicy(ctx context.Context, policy *models.PolicyDocument) error
	UpsertTemplate(ctx context.Context, template *models.SituationTemplate, policyIDs []string) error
}

type userSeeder interface {
	Upsert(ctx context.Context, user *models.User) error
}

func main() {
	var (
		path    string
		migrate bool
		timeout time.Duration
	)
	flag.StringVar(&path, "file", "", "Path to a seed YAML file (defaults to the embedded seed)")
	flag.BoolVar(&migrate, "migrate", false, "Apply pending migrations before seeding")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	raw := defaultSeed
	if path != "" {
		if raw, err = os.ReadFile(path); err != nil {
			logr.Fatal("read seed file", zap.String("path", path), zap.Error(err))
		}
	}
	seed, err := parseSeed(raw)
	if err != nil {
		logr.Fatal("parse seed file", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if migrate {
		if err := database.Migrate(db, migrations.FS, logr); err != nil {
			logr.Fatal("migrate", zap.Error(err))
		}
	}

	summary, err := apply(ctx, repository.NewCaptainRepository(db), seed)
	if err != nil {
		logr.Fatal("seed captain data", zap.Error(err))
	}
	seeded, skipped, err := applyOfficials(ctx, repository.NewUserRepository(db), seed.Officials, os.LookupEnv)
	if err != nil {
		logr.Fatal("seed officials", zap.Error(err))
	}
	if len(skipped) > 0 {
		logr.Warn("officials skipped, password variable not set", zap.Strings("usernames", skipped))
	}
	logr.Info("captain data seeded",
		zap.String("personality", seed.Personality.Name),
		zap.Int("policies", summary.policies),
		zap.Int("templates", summary.templates),
		zap.Int("officials", seeded))
}

type seedSummary struct {
	policies  int
	templates int
}

func parseSeed(raw []byte) (*seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, err
	}
	if seed.Personality.Name == "" {
		return nil, fmt.Errorf("personality name is required")
	}
	for _, policy := range seed.Policies {
		if policy.Title == "" {
			return nil, fmt.Errorf("policy without title")
		}
	}
	for _, tpl := range seed.Templates {
		if tpl.Title == "" {
			return nil, fmt.Errorf("template without title")
		}
	}
	for _, official := range seed.Officials {
		role := models.UserRole(official.Role)
		if official.Username == "" || !role.Valid() {
			return nil, fmt.Errorf("official %q needs a username and a valid role", official.Username)
		}
	}
	return &seed, nil
}

func apply(ctx context.Context, store captainSeeder, seed *seedFile) (seedSummary, error) {
	var summary seedSummary

	p := seed.Personality
	personality := &models.CaptainPersonality{
		Name:                 p.Name,
		GreetingMessage:      p.Greeting,
		Tone:                 p.Tone,
		LanguageStyle:        p.LanguageStyle,
		ProactiveSuggestions: p.ProactiveSuggestions,
		AskFollowupQuestions: p.AskFollowupQuestions,
		EmpathyLevel:         p.EmpathyLevel,
		SystemPrompt:         p.SystemPrompt,
		IsActive:             true,
	}
	if err := store.UpsertPersonality(ctx, personality); err != nil {
		return summary, err
	}

	policyIDs := make(map[string]string, len(seed.Policies))
	for _, sp := range seed.Policies {
		policy := &models.PolicyDocument{
			Title:           sp.Title,
			Category:        models.PolicyCategory(sp.Category),
			Content:         sp.Content,
			Summary:         sp.Summary,
			Keywords:        sp.Keywords,
			OrdinanceNumber: sp.OrdinanceNumber,
			IsActive:        true,
		}
		if err := store.UpsertPolicy(ctx, policy); err != nil {
			return summary, err
		}
		policyIDs[sp.Title] = policy.ID
		summary.policies++
	}

	for _, t := range seed.Templates {
		linked := make([]string, 0, len(t.Policies))
		for _, title := range t.Policies {
			id, ok := policyIDs[title]
			if !ok {
				return summary, fmt.Errorf("template %q references unknown policy %q", t.Title, title)
			}
			linked = append(linked, id)
		}
		template := &models.SituationTemplate{
			SituationType:     t.SituationType,
			Title:             t.Title,
			Description:       t.Description,
			RecommendedSteps:  t.RecommendedSteps,
			RequiredDocuments: t.RequiredDocuments,
			EstimatedTimeline: t.EstimatedTimeline,
			IsActive:          true,
		}
		if err := store.UpsertTemplate(ctx, template, linked); err != nil {
			return summary, err
		}
		summary.templates++
	}
	return summary, nil
}

// applyOfficials upserts the configured accounts. Entries whose password variable
// is unset are skipped and reported back.
func applyOfficials(ctx context.Context, store userSeeder, officials []seedOfficial, lookupEnv func(string) (string, bool)) (int, []string, error) {
	var (
		seeded  int
		skipped []string
	)
	for _, o := range officials {
		password, ok := lookupEnv(o.PasswordEnv)
		if !ok || strings.TrimSpace(password) == "" {
			skipped = append(skipped, o.Username)
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return seeded, skipped, fmt.Errorf("hash password for %s: %w", o.Username, err)
		}
		if err := store.Upsert(ctx, &models.User{
			Username:     o.Username,
			Email:        o.Email,
			FullName:     o.FullName,
			Role:         models.UserRole(o.Role),
			PasswordHash: string(hash),
			Active:       true,
		}); err != nil {
			return seeded, skipped, err
		}
		seeded++
	}
	return seeded, skipped, nil
}
