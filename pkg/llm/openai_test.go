package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/barangay-api/pkg/config"
)

func TestOpenAIGenerate(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Magandang araw po!  "}}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAI(Options{APIKey: "test-key", BaseURL: server.URL + "/", Model: "test-model"}, zap.NewNop())
	require.NoError(t, err)

	answer, err := provider.Generate(context.Background(), Prompt{
		System:  "You are Kapitan AI.",
		History: []Turn{{User: "hello", Assistant: "hi po"}},
		Message: "kumusta",
	})
	require.NoError(t, err)
	assert.Equal(t, "Magandang araw po!", answer)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "kumusta", captured.Messages[3].Content)
}

func TestOpenAIGenerateRetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider, err := NewOpenAI(Options{APIKey: "k", BaseURL: server.URL, MaxRetries: 2, RetryDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), Prompt{Message: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAI(Options{APIKey: "k", BaseURL: server.URL}, nil)
	require.NoError(t, err)

	_, err = provider.Generate(context.Background(), Prompt{Message: "hello"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := NewOpenAI(Options{}, nil)
	require.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	provider, err := New(context.Background(), config.CaptainConfig{Provider: config.LLMProviderNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, provider)

	provider, err = New(context.Background(), config.CaptainConfig{Provider: "OpenAI", APIKey: "k"}, nil)
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Equal(t, "openai", provider.Name())

	_, err = New(context.Background(), config.CaptainConfig{Provider: "claude", APIKey: "k"}, nil)
	require.Error(t, err)
}

func TestOpenAISendsZeroTemperature(t *testing.T) {
	var raw map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAI(Options{APIKey: "k", BaseURL: server.URL, Temperature: 0}, nil)
	require.NoError(t, err)
	_, err = provider.Generate(context.Background(), Prompt{Message: "hi"})
	require.NoError(t, err)

	require.Contains(t, raw, "temperature")
	assert.Equal(t, float64(0), raw["temperature"])
}

func TestOptionsTemperatureDefaults(t *testing.T) {
	assert.Equal(t, 0.0, Options{}.withDefaults("m").Temperature)
	assert.Equal(t, 0.2, Options{Temperature: 0.2}.withDefaults("m").Temperature)
	assert.Equal(t, 0.7, Options{Temperature: -1}.withDefaults("m").Temperature)
}
