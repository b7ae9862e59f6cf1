// Package relay talks to a speech-session relay over a websocket. The relay
// fronts the hosted voice assistant: it accepts start/stop frames and pushes
// call lifecycle, speech and volume events back as JSON text frames.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/provider"
)

var (
	ErrNotConnected = errors.New("relay: not connected")
	ErrClosed       = errors.New("relay: client closed")
	ErrStartPending = errors.New("relay: start already pending")
)

type Config struct {
	URL              string
	APIKey           string
	HandshakeTimeout time.Duration
	EventBuffer      int
	// DialAttempts bounds connection attempts per Start. Rejected
	// handshakes (401/403) are never retried.
	DialAttempts int
	DialBackoff  time.Duration
	// VolumeScale is the full-scale value of volume-level frames: 1 when the
	// relay reports fractions, 100 for percentages.
	VolumeScale float64
}

func DefaultConfig() Config {
	return Config{
		URL:              "ws://localhost:8000/voice",
		HandshakeTimeout: 10 * time.Second,
		EventBuffer:      64,
		DialAttempts:     3,
		DialBackoff:      250 * time.Millisecond,
		VolumeScale:      1,
	}
}

type startReply struct {
	call provider.Call
	err  error
}

type Client struct {
	cfg    Config
	log    zerolog.Logger
	dialer websocket.Dialer

	events  chan provider.Event
	done    chan struct{}
	dropped atomic.Uint64

	mu      sync.Mutex
	conn    *websocket.Conn
	pending chan startReply
	closed  bool

	writeMu sync.Mutex
	readers sync.WaitGroup
}

var _ provider.Provider = (*Client)(nil)

func New(cfg Config, logger zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.DialAttempts <= 0 {
		cfg.DialAttempts = def.DialAttempts
	}
	if cfg.DialBackoff <= 0 {
		cfg.DialBackoff = def.DialBackoff
	}
	if cfg.VolumeScale <= 0 {
		cfg.VolumeScale = def.VolumeScale
	}
	return &Client{
		cfg:    cfg,
		log:    logger.With().Str("component", "relay").Logger(),
		dialer: websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		events: make(chan provider.Event, cfg.EventBuffer),
		done:   make(chan struct{}),
	}
}

func (c *Client) Events() <-chan provider.Event {
	return c.events
}

// Dropped reports events discarded because the consumer fell behind.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

type wireCall struct {
	ID string `json:"id"`
}

type wireOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type wireMessage struct {
	Type               string                 `json:"type"`
	AssistantID        string                 `json:"assistantId,omitempty"`
	AssistantOverrides *wireOverrides         `json:"assistantOverrides,omitempty"`
	Functions          []provider.FunctionDef `json:"functions,omitempty"`
	Call               *wireCall              `json:"call,omitempty"`
	CallID             string                 `json:"callId,omitempty"`
	Level              float64                `json:"level,omitempty"`
	Error              string                 `json:"error,omitempty"`
}

func (c *Client) Start(ctx context.Context, assistantID string, opts provider.StartOptions) (provider.Call, error) {
	if err := c.connect(ctx); err != nil {
		return provider.Call{}, err
	}

	reply := make(chan startReply, 1)
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return provider.Call{}, ErrStartPending
	}
	c.pending = reply
	c.mu.Unlock()

	msg := wireMessage{
		Type:               "start",
		AssistantID:        assistantID,
		AssistantOverrides: &wireOverrides{VariableValues: opts.VariableValues},
		Functions:          opts.Functions,
	}
	if err := c.write(msg); err != nil {
		c.clearPending(reply)
		return provider.Call{}, err
	}

	select {
	case r := <-reply:
		return r.call, r.err
	case <-ctx.Done():
		c.clearPending(reply)
		return provider.Call{}, ctx.Err()
	}
}

func (c *Client) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if !connected {
		return nil
	}
	return c.write(wireMessage{Type: "stop"})
}

// Close drops the connection and closes the event channel once the reader
// has exited.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	close(c.done)

	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.readers.Wait()
	close(c.events)
	return err
}

func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.DialBackoff
	exp.Multiplier = 2
	exp.MaxInterval = 4 * c.cfg.DialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.DialAttempts-1)), ctx)

	attempt := 0
	var conn *websocket.Conn
	err := backoff.Retry(func() error {
		attempt++
		var (
			resp *http.Response
			err  error
		)
		conn, resp, err = c.dialer.DialContext(ctx, c.cfg.URL, header)
		if err == nil {
			return nil
		}
		if resp != nil {
			c.log.Error().Int("status", resp.StatusCode).Int("attempt", attempt).Err(err).Msg("relay handshake failed")
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return backoff.Permanent(err)
			}
		} else {
			c.log.Warn().Int("attempt", attempt).Err(err).Msg("relay dial failed")
		}
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn
	c.readers.Add(1)
	go c.readLoop(conn)
	c.log.Info().Str("url", c.cfg.URL).Msg("connected to speech relay")
	return nil
}

func (c *Client) write(msg wireMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.readers.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Str("message", string(data)).Msg("unparseable relay frame")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg wireMessage) {
	switch msg.Type {
	case "call-created":
		if msg.Call == nil || msg.Call.ID == "" {
			c.resolvePending(startReply{err: errors.New("relay: call-created without id")})
			return
		}
		c.resolvePending(startReply{call: provider.Call{ID: msg.Call.ID}})
	case provider.NameCallStart:
		c.emit(provider.CallStarted{CallID: msg.CallID})
	case provider.NameCallEnd:
		c.emit(provider.CallEnded{})
	case provider.NameSpeechStart:
		c.emit(provider.SpeechStarted{})
	case provider.NameSpeechEnd:
		c.emit(provider.SpeechEnded{})
	case provider.NameVolumeLevel:
		c.emit(provider.VolumeLevel{Level: provider.ScaleVolume(msg.Level, c.cfg.VolumeScale)})
	case provider.NameError:
		reason := msg.Error
		if reason == "" {
			reason = "provider error"
		}
		if c.resolvePending(startReply{err: fmt.Errorf("relay: start rejected: %s", reason)}) {
			return
		}
		c.emit(provider.Failed{Reason: reason})
	default:
		c.log.Debug().Str("type", msg.Type).Msg("ignoring relay frame")
	}
}

func (c *Client) connectionLost(conn *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()
	_ = conn.Close()

	if closed || !current {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Debug().Msg("relay closed the connection")
		c.resolvePending(startReply{err: ErrNotConnected})
		return
	}
	c.log.Error().Err(err).Msg("relay connection lost")
	if !c.resolvePending(startReply{err: fmt.Errorf("relay: connection lost: %w", err)}) {
		c.emit(provider.Failed{Reason: err.Error()})
	}
}

// resolvePending hands r to a waiting Start, reporting whether one existed.
func (c *Client) resolvePending(r startReply) bool {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if pending == nil {
		return false
	}
	pending <- r
	return true
}

func (c *Client) clearPending(ch chan startReply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == ch {
		c.pending = nil
	}
}

// emit drops speech and volume events when the consumer is behind and waits
// for room for lifecycle events until the client is closed.
func (c *Client) emit(ev provider.Event) {
	if provider.Lossy(ev) {
		select {
		case c.events <- ev:
		default:
			c.dropped.Add(1)
			c.log.Warn().Str("event", ev.Name()).Msg("event channel full, dropping")
		}
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
		c.log.Debug().Str("event", ev.Name()).Msg("client closed, event not delivered")
	}
}
