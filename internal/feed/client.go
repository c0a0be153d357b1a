package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client errors.
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("client already closed")
)

// Frame is one raw compressed frame as received from the stream.
type Frame struct {
	Data       []byte
	ReceivedAt time.Time
}

// Client is a single subscription connection to the feed relay.
type Client interface {
	// Connect dials the relay and subscribes to all topics.
	Connect(ctx context.Context) error

	// Close tears the connection down.
	Close() error

	// Frames returns the bounded receive buffer. Frames arriving while the
	// buffer is at its high watermark are dropped.
	Frames() <-chan Frame

	// Errors returns a channel of connection errors.
	Errors() <-chan error

	// IsConnected returns the current connection state.
	IsConnected() bool
}

// ClientConfig holds transport settings.
type ClientConfig struct {
	URL              string
	HighWatermark    int // Receive buffer capacity
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// subscribeAll is sent once after the dial; the relay then forwards every
// topic on the feed.
type subscribeCmd struct {
	Op    string `json:"op"`
	Topic string `json:"topic"`
}

type client struct {
	cfg    ClientConfig
	logger *slog.Logger

	conn   *websocket.Conn
	frames chan Frame
	errors chan error
	done   chan struct{}

	mu        sync.RWMutex
	connected bool
	closed    bool
}

// NewClient creates a feed transport client.
func NewClient(cfg ClientConfig, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &client{
		cfg:    cfg,
		logger: logger,
		frames: make(chan Frame, cfg.HighWatermark),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

// Connect dials the relay and starts the read loop.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	// Subscribe to everything; topic filtering happens by schema prefix
	// after decompression.
	cmd, _ := json.Marshal(subscribeCmd{Op: "subscribe", Topic: "*"})
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, cmd); err != nil {
		conn.Close()
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return err
	}

	go c.readLoop()

	c.logger.Debug("feed connected", "url", c.cfg.URL)
	return nil
}

// Close tears the connection down.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return c.conn.Close()
	}
	return nil
}

func (c *client) Frames() <-chan Frame {
	return c.frames
}

func (c *client) Errors() <-chan error {
	return c.errors
}

func (c *client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// readLoop receives frames and applies the high-watermark drop policy.
func (c *client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			// Ignore errors after Close() was called.
			select {
			case <-c.done:
				return
			default:
				select {
				case c.errors <- err:
				default:
				}
				return
			}
		}

		select {
		case c.frames <- Frame{Data: data, ReceivedAt: receivedAt}:
		case <-c.done:
			return
		default:
			c.logger.Warn("receive buffer at high watermark, dropping frame")
		}
	}
}
