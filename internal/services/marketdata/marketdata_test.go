package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PollsMidpoints(t *testing.T) {
	var mu sync.Mutex
	seenKeys := map[string]bool{}
	seenMarkets := map[string]bool{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seenKeys[r.Header.Get("X-Api-Key")] = true
		market := r.URL.Query().Get("market")
		seenMarkets[market] = true
		mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{"market": market, "mid": 0.42})
	}))
	defer server.Close()

	c := New(Config{
		Endpoint:     server.URL,
		Markets:      []string{"cond-1", "cond-2"},
		APIKey:       "k-test",
		PollInterval: time.Second,
	})

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())
	assert.True(t, c.IsRunning())

	require.Eventually(t, func() bool {
		stats := c.GetStats()
		return stats["polls"].(int) >= 1 && stats["last_poll_unix"].(int64) != 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.True(t, seenKeys["k-test"])
	assert.True(t, seenMarkets["cond-1"])
	assert.True(t, seenMarkets["cond-2"])
	mu.Unlock()

	c.mu.Lock()
	assert.Equal(t, 0.42, c.lastPrices["cond-1"])
	c.mu.Unlock()

	stats := c.GetStats()
	assert.Equal(t, 2, stats["markets_tracked"])
	assert.Equal(t, 0, stats["errors"])
	assert.NotEmpty(t, stats["session_id"])
}

func TestClient_CountsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	c := New(Config{
		Endpoint:     server.URL,
		Markets:      []string{"cond-1"},
		PollInterval: time.Second,
	})

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	require.Eventually(t, func() bool {
		return c.GetStats()["errors"].(int) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClient_SessionIDsAreUnique(t *testing.T) {
	a := New(Config{Endpoint: "http://example.invalid"})
	b := New(Config{Endpoint: "http://example.invalid"})
	assert.NotEqual(t, a.sessionID, b.sessionID)
}
