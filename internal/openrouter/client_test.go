package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/common"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "meta-llama/llama-3.1-8b-instruct:free", req["model"])
		assert.Equal(t, float64(0), req["temperature"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "FINAL VERDICT: pass"}}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL)
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "meta-llama/llama-3.1-8b-instruct:free", "evaluate GHSI")
	require.NoError(t, err)
	assert.Equal(t, "FINAL VERDICT: pass", out)
}

func TestGenerateErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "http 429 maps to rate limit",
			status:  http.StatusTooManyRequests,
			wantErr: common.ErrRateLimit,
		},
		{
			name:    "http 404 maps to model not found",
			status:  http.StatusNotFound,
			wantErr: common.ErrModelNotFound,
		},
		{
			name:    "tunneled 429 in 200 body maps to rate limit",
			status:  http.StatusOK,
			body:    `{"error": {"code": 429, "message": "rate limited upstream"}}`,
			wantErr: common.ErrRateLimit,
		},
		{
			name:    "tunneled 404 in 200 body maps to model not found",
			status:  http.StatusOK,
			body:    `{"error": {"code": 404, "message": "no such model"}}`,
			wantErr: common.ErrModelNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			client, err := NewClient("test-key", server.URL)
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "some/model:free", "prompt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL)
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "some/model:free", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}
