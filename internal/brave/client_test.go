package brave

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/common"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "penny stocks trending", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "pd", r.URL.Query().Get("freshness"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"web": {
				"results": [
					{"title": "Top movers today", "description": "GHSI surges on volume"},
					{"title": "Watchlist", "description": "TTOO back in focus"}
				]
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL)
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "penny stocks trending", 5, "pd")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Top movers today", results[0].Title)
	assert.Equal(t, "GHSI surges on volume", results[0].Snippet)
}

func TestSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL)
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "anything", 5, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRateLimit))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}
