// Package marketdata polls prediction-market prices over REST. It
// implements the services.Service contract so the supervisor can
// manage its lifecycle.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"oddsctl/pkg/logging"
)

// midpoint mirrors the market API's midpoint response.
type midpoint struct {
	Market string  `json:"market"`
	Mid    float64 `json:"mid"`
}

// Config holds the client settings.
type Config struct {
	// Endpoint is the market API base URL.
	Endpoint string

	// Markets lists the condition/market ids to track.
	Markets []string

	// APIKey authenticates requests; resolved from the environment
	// credential convention by the caller.
	APIKey string

	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Client is a market-data worker polling midpoints for a set of
// markets.
type Client struct {
	cfg       Config
	client    *http.Client
	sessionID string

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	polls      int
	errors     int
	lastPoll   time.Time
	lastPrices map[string]float64
}

// New creates a market-data client with a fresh session id.
func New(cfg Config) *Client {
	if cfg.PollInterval < time.Second {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		sessionID:  uuid.NewString(),
		lastPrices: make(map[string]float64),
	}
}

// Start launches the polling loop. Starting a running client is a
// no-op. The passed context only bounds startup; the loop itself runs
// until Stop.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.loop(loopCtx)

	logging.Info("MarketData", "started session %s tracking %d markets", c.sessionID, len(c.cfg.Markets))
	return nil
}

// Stop halts the polling loop and waits for it to exit, bounded by the
// caller's context.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	done := c.done
	c.running = false
	c.cancel = nil
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
		logging.Info("MarketData", "stopped session %s", c.sessionID)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("market data client did not stop in time: %w", ctx.Err())
	}
}

// IsRunning reports whether the polling loop is active.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// GetStats returns a snapshot of the client's counters.
func (c *Client) GetStats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastPollUnix int64
	if !c.lastPoll.IsZero() {
		lastPollUnix = c.lastPoll.Unix()
	}
	return map[string]any{
		"session_id":      c.sessionID,
		"markets_tracked": len(c.cfg.Markets),
		"polls":           c.polls,
		"errors":          c.errors,
		"last_poll_unix":  lastPollUnix,
	}
}

func (c *Client) loop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	c.pollAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollAll(ctx)
		}
	}
}

func (c *Client) pollAll(ctx context.Context) {
	c.mu.Lock()
	c.polls++
	c.mu.Unlock()

	for _, market := range c.cfg.Markets {
		if ctx.Err() != nil {
			return
		}
		mid, err := c.fetchMidpoint(ctx, market)
		if err != nil {
			c.mu.Lock()
			c.errors++
			c.mu.Unlock()
			logging.Warn("MarketData", "midpoint fetch failed for %s: %v", market, err)
			continue
		}
		c.mu.Lock()
		c.lastPrices[market] = mid
		c.lastPoll = time.Now()
		c.mu.Unlock()
	}
}

func (c *Client) fetchMidpoint(ctx context.Context, market string) (float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/midpoint?market=%s", c.cfg.Endpoint, url.QueryEscape(market))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}
	req.Header.Set("X-Session-Id", c.sessionID)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("market API returned status %d", resp.StatusCode)
	}

	var m midpoint
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return 0, fmt.Errorf("failed to decode midpoint: %w", err)
	}
	return m.Mid, nil
}
