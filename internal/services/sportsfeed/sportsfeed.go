// Package sportsfeed polls a sports-scores REST endpoint on a fixed
// interval. It implements the services.Service contract so the
// supervisor can manage its lifecycle.
package sportsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"oddsctl/pkg/logging"
)

// scoreEvent mirrors the feed's JSON payload for a single game.
type scoreEvent struct {
	League    string `json:"league"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Status    string `json:"status"`
}

// Config holds the poller settings.
type Config struct {
	Endpoint       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Poller is a sports-data worker polling scores over REST.
type Poller struct {
	cfg    Config
	client *http.Client

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	polls      int
	errors     int
	eventsSeen int
	lastPoll   time.Time
	lastError  error
}

// New creates a poller. Interval and timeout get sane floors so a
// zero-valued config cannot busy-poll.
func New(cfg Config) *Poller {
	if cfg.PollInterval < time.Second {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	return &Poller{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Start launches the polling loop. Starting a running poller is a
// no-op. The passed context only bounds startup; the loop itself runs
// until Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(loopCtx)

	logging.Info("SportsFeed", "started polling %s every %s", p.cfg.Endpoint, p.cfg.PollInterval)
	return nil
}

// Stop halts the polling loop and waits for it to exit, bounded by the
// caller's context.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	done := p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
		logging.Info("SportsFeed", "stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sports feed did not stop in time: %w", ctx.Err())
	}
}

// IsRunning reports whether the polling loop is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// GetStats returns a snapshot of the poller's counters.
func (p *Poller) GetStats() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastPollUnix int64
	if !p.lastPoll.IsZero() {
		lastPollUnix = p.lastPoll.Unix()
	}
	return map[string]any{
		"endpoint":       p.cfg.Endpoint,
		"polls":          p.polls,
		"errors":         p.errors,
		"events_seen":    p.eventsSeen,
		"last_poll_unix": lastPollUnix,
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	// Poll once immediately so stats are live before the first tick.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.mu.Lock()
	p.polls++
	p.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.cfg.Endpoint, nil)
	if err != nil {
		p.recordError(err)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.recordError(err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.recordError(fmt.Errorf("feed returned status %d", resp.StatusCode))
		return
	}

	var events []scoreEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		p.recordError(fmt.Errorf("failed to decode feed payload: %w", err))
		return
	}

	p.mu.Lock()
	p.eventsSeen += len(events)
	p.lastPoll = time.Now()
	p.mu.Unlock()

	logging.Debug("SportsFeed", "polled %d events", len(events))
}

func (p *Poller) recordError(err error) {
	p.mu.Lock()
	p.errors++
	p.lastError = err
	p.mu.Unlock()
	logging.Warn("SportsFeed", "poll failed: %v", err)
}
