package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	referenceAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength       = 10
	defaultReferenceTries = 100
)

type referenceChecker interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
}

// ReferenceGenerator issues anonymous complaint references.
type ReferenceGenerator struct {
	store       referenceChecker
	maxAttempts int
	now         func() time.Time
	random      func(max int64) (int64, error)
}

// NewReferenceGenerator builds a generator checking uniqueness against store.
func NewReferenceGenerator(store referenceChecker, maxAttempts int) *ReferenceGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultReferenceTries
	}
	return &ReferenceGenerator{store: store, maxAttempts: maxAttempts, now: time.Now, random: cryptoInt}
}

// Generate returns an unused 10 character reference. After maxAttempts collisions it
// falls back to REF<unix seconds><4 digits>.
func (g *ReferenceGenerator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := g.candidate()
		if err != nil {
			return "", err
		}
		exists, err := g.store.ReferenceExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	suffix, err := g.random(9000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("REF%d%d", g.now().Unix(), 1000+suffix), nil
}

func (g *ReferenceGenerator) candidate() (string, error) {
	buf := make([]byte, referenceLength)
	for i := range buf {
		n, err := g.random(int64(len(referenceAlphabet)))
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		buf[i] = referenceAlphabet[n]
	}
	return string(buf), nil
}

func cryptoInt(max int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}
