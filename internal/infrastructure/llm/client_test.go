package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalagent/backend/internal/domain"
)

func testRequest() *domain.RefinementRequest {
	return &domain.RefinementRequest{
		ConversationNotes: "I would love a new high cube container. I need 2 containers.",
		CustomerName:      "Jane Smith",
		Catalog: []domain.Product{
			{ID: "p-1", Name: "20ft New High Cube Container", UnitPrice: 500000},
			{ID: "p-2", Name: "20ft Office", UnitPrice: 900000},
		},
	}
}

func completion(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func newTestClient(baseURL string) *Client {
	client := NewClient(Config{
		Provider:          ProviderOpenAI,
		APIKey:            "test-api-key",
		BaseURL:           baseURL,
		Model:             "test-model",
		RequestsPerMinute: 6000,
	}, zerolog.Nop())
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantBaseURL string
		wantModel   string
	}{
		{
			name:        "gemini defaults",
			cfg:         Config{APIKey: "k"},
			wantBaseURL: strings.TrimRight(geminiBaseURL, "/"),
			wantModel:   geminiModel,
		},
		{
			name:        "openai defaults",
			cfg:         Config{Provider: "OpenAI", APIKey: "k"},
			wantBaseURL: strings.TrimRight(openAIBaseURL, "/"),
			wantModel:   openAIModel,
		},
		{
			name:        "explicit values win",
			cfg:         Config{Provider: ProviderGemini, APIKey: "k", BaseURL: "http://localhost:9999/", Model: "custom"},
			wantBaseURL: "http://localhost:9999",
			wantModel:   "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg, zerolog.Nop())

			assert.Equal(t, tt.wantBaseURL, client.baseURL)
			assert.Equal(t, tt.wantModel, client.model)
			assert.NotNil(t, client.httpClient)
			assert.NotNil(t, client.rateLimiter)
			assert.False(t, client.debug)
		})
	}
}

func TestSetDebug(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, zerolog.Nop())

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestRefine_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		assert.InDelta(t, 0.1, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "ID: p-1")
		assert.Contains(t, req.Messages[1].Content, "Price: $5000.00")

		w.Header().Set("Content-Type", "application/json")
		w.Write(completion(t, `{"requirements":["High cube container"],"matchedProducts":[{"productId":"p-1","productName":"20ft New High Cube Container","quantity":2,"confidence":0.9}],"timeline":null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.Refine(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, resp.MatchedProducts, 1)
	assert.Equal(t, "p-1", resp.MatchedProducts[0].ProductID)
	assert.Equal(t, 2, resp.MatchedProducts[0].Quantity)
	assert.InDelta(t, 0.9, resp.MatchedProducts[0].Confidence, 1e-9)
	assert.Equal(t, []string{"High cube container"}, resp.Requirements)
	assert.Empty(t, resp.Timeline)
}

func TestRefine_NoAPIKey(t *testing.T) {
	client := NewClient(Config{Provider: ProviderOpenAI}, zerolog.Nop())

	resp, err := client.Refine(context.Background(), testRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrRefinementUnavailable)
}

func TestRefine_EmptyCatalog(t *testing.T) {
	client := newTestClient("http://unused")

	resp, err := client.Refine(context.Background(), &domain.RefinementRequest{ConversationNotes: "x"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRefine_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(completion(t, `{"matchedProducts":[{"productId":"p-2"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.Refine(context.Background(), testRequest())

	require.NoError(t, err)
	require.Len(t, resp.MatchedProducts, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRefine_TooManyRequests_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(completion(t, `{"matchedProducts":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Refine(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRefine_ClientError_NoRetry(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.Refine(context.Background(), testRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrRefinementAPIFailure)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRefine_AllRetriesFail(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.Refine(context.Background(), testRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrRefinementAPIFailure)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&attempts))
}

func TestRefine_InvalidJSON(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "envelope", body: []byte("invalid json")},
		{name: "completion content", body: completion(t, "not json at all")},
		{name: "no choices", body: []byte(`{"choices":[]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write(tt.body)
			}))
			defer server.Close()

			resp, err := newTestClient(server.URL).Refine(context.Background(), testRequest())

			assert.Nil(t, resp)
			assert.ErrorIs(t, err, domain.ErrRefinementAPIFailure)
		})
	}
}

func TestRefine_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	resp, err := client.Refine(ctx, testRequest())

	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestRefine_RequestCreationError(t *testing.T) {
	client := newTestClient("://invalid-url")

	resp, err := client.Refine(context.Background(), testRequest())

	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestReadLimitedBody(t *testing.T) {
	t.Run("reads within limit", func(t *testing.T) {
		body, err := readLimitedBody(strings.NewReader("short content"), 1000)
		require.NoError(t, err)
		assert.Equal(t, "short content", string(body))
	})

	t.Run("truncates beyond limit", func(t *testing.T) {
		body, err := readLimitedBody(strings.NewReader(strings.Repeat("0123456789", 100)), 100)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})
}
