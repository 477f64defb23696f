// Package marketstream consumes a prediction-market WebSocket feed
// with automatic reconnection. It implements the services.Service
// contract so the supervisor can manage its lifecycle.
package marketstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"oddsctl/pkg/logging"
)

// Config holds the streaming client settings.
type Config struct {
	// URL is the WebSocket endpoint.
	URL string

	// Channels to subscribe to after connecting.
	Channels []string

	// ReconnectDelay is the initial delay between reconnect attempts;
	// it doubles per failure up to MaxReconnectDelay.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

// Client is a streaming market-data worker.
type Client struct {
	cfg Config

	mu          sync.Mutex
	running     bool
	connected   bool
	cancel      context.CancelFunc
	done        chan struct{}
	messages    int
	reconnects  int
	lastMessage time.Time
}

// New creates a streaming client.
func New(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = 30 * time.Second
	}
	return &Client{cfg: cfg}
}

// Start launches the stream loop. Starting a running client is a
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

	logging.Info("MarketStream", "started streaming from %s", c.cfg.URL)
	return nil
}

// Stop halts the stream loop and waits for it to exit, bounded by the
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
		logging.Info("MarketStream", "stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("market stream did not stop in time: %w", ctx.Err())
	}
}

// IsRunning reports whether the stream loop is active.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// GetStats returns a snapshot of the client's counters.
func (c *Client) GetStats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastMessageUnix int64
	if !c.lastMessage.IsZero() {
		lastMessageUnix = c.lastMessage.Unix()
	}
	return map[string]any{
		"url":               c.cfg.URL,
		"connected":         c.connected,
		"messages":          c.messages,
		"reconnects":        c.reconnects,
		"last_message_unix": lastMessageUnix,
	}
}

// loop dials, subscribes, and reads until the context is cancelled,
// reconnecting with exponential backoff on any failure.
func (c *Client) loop(ctx context.Context) {
	defer close(c.done)

	delay := c.cfg.ReconnectDelay
	first := true

	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			c.mu.Lock()
			c.reconnects++
			c.mu.Unlock()

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.cfg.MaxReconnectDelay {
				delay = c.cfg.MaxReconnectDelay
			}
		}
		first = false

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			logging.Warn("MarketStream", "dial failed: %v", err)
			continue
		}

		if err := c.subscribe(conn); err != nil {
			logging.Warn("MarketStream", "subscribe failed: %v", err)
			conn.Close()
			continue
		}

		// Connection established; reset the backoff.
		delay = c.cfg.ReconnectDelay
		c.setConnected(true)
		logging.Debug("MarketStream", "connected to %s", c.cfg.URL)

		c.readLoop(ctx, conn)
		c.setConnected(false)
	}
}

func (c *Client) subscribe(conn *websocket.Conn) error {
	if len(c.cfg.Channels) == 0 {
		return nil
	}
	return conn.WriteJSON(map[string]any{
		"type":     "subscribe",
		"channels": c.cfg.Channels,
	})
}

// readLoop consumes messages until the connection drops or the context
// is cancelled. A watcher goroutine closes the connection on cancel so
// the blocking read unblocks promptly.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopped:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if ctx.Err() == nil {
				logging.Warn("MarketStream", "read failed: %v", err)
			}
			return
		}
		c.mu.Lock()
		c.messages++
		c.lastMessage = time.Now()
		c.mu.Unlock()
	}
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
}
