package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	hit, err := svc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.entries)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
}

func TestCacheServiceRecordsHitRatio(t *testing.T) {
	metrics := NewMetricsService()
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "greeting", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "greeting", "kumusta", 0))
	hit, err = svc.Get(ctx, "greeting", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "kumusta", out)
	assert.Contains(t, repo.entries, "barangay:greeting")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.001)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, 0, nil, true)

	hit, err := svc.Get(context.Background(), "k", new(int))
	assert.False(t, hit)
	assert.Error(t, err)
}

func TestRememberLoadsOnce(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"pending"}, nil
	}

	value, hit, err := remember(ctx, svc, "statuses", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"pending"}, value)

	value, hit, err = remember(ctx, svc, "statuses", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"pending"}, value)
	assert.Equal(t, 1, calls)

	_, _, err = remember(ctx, svc, "other", 0, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestComplaintStatisticsServedFromCache(t *testing.T) {
	f := newComplaintFixture(complaintWith("cmp-1", models.ComplaintStatusPending))
	f.svc.cache = NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	f.store.stats = &models.ComplaintStatistics{Total: 1, ByStatus: map[string]int{"pending": 1}}
	ctx := context.Background()

	_, hit, err := f.svc.Statistics(ctx, chairman)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = f.svc.Statistics(ctx, chairman)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, f.store.statsCalls)

	_, err = f.svc.FastAccept(ctx, "cmp-1", secretary)
	require.NoError(t, err)
	_, hit, err = f.svc.Statistics(ctx, chairman)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.store.statsCalls)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordComplaintCreated(true)
	metrics.RecordTransition(models.ComplaintStatusPending, models.ComplaintStatusUnderReview)
	metrics.RecordCaptainResponse(models.ResponseSourceLLM, "greeting")
	metrics.ObserveLLMCall("gemini", "ok", time.Second)
	metrics.RecordNotificationJob("delivered")
}

func TestMetricsServiceSnapshotCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition(models.ComplaintStatusPending, models.ComplaintStatusUnderReview)
	metrics.RecordTransition(models.ComplaintStatusUnderReview, models.ComplaintStatusInProgress)
	metrics.RecordCaptainResponse(models.ResponseSourceLLM, "greeting")
	metrics.RecordCaptainResponse(models.ResponseSourceRuleBased, "help")
	metrics.RecordCaptainResponse(models.ResponseSourceRuleBased, "general")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.ComplaintTransitions)
	assert.Equal(t, uint64(1), snapshot.CaptainResponses[string(models.ResponseSourceLLM)])
	assert.Equal(t, uint64(2), snapshot.CaptainResponses[string(models.ResponseSourceRuleBased)])
}
