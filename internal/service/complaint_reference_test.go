package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type referenceCheckerStub struct {
	taken func(reference string) bool
	calls int
	err   error
}

func (s *referenceCheckerStub) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.taken(reference), nil
}

func TestReferenceGeneratorUnique(t *testing.T) {
	store := &referenceCheckerStub{taken: func(string) bool { return false }}
	gen := NewReferenceGenerator(store, 0)

	ref, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{10}$`), ref)
	assert.Equal(t, 1, store.calls)
}

func TestReferenceGeneratorRetriesCollisions(t *testing.T) {
	seen := 0
	store := &referenceCheckerStub{taken: func(string) bool {
		seen++
		return seen < 3
	}}
	gen := NewReferenceGenerator(store, 5)

	_, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
}

func TestReferenceGeneratorFallback(t *testing.T) {
	store := &referenceCheckerStub{taken: func(string) bool { return true }}
	gen := NewReferenceGenerator(store, 4)
	gen.now = func() time.Time { return time.Unix(1700000000, 0) }
	gen.random = func(max int64) (int64, error) { return 7, nil }

	ref, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "REF17000000001007", ref)
	assert.Equal(t, 4, store.calls)
}

func TestReferenceGeneratorStoreError(t *testing.T) {
	store := &referenceCheckerStub{err: errors.New("db down")}
	gen := NewReferenceGenerator(store, 3)

	_, err := gen.Generate(context.Background())
	require.Error(t, err)
}
