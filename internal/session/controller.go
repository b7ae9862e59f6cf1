// Package session drives one voice-assistant call at a time through
// Idle → Starting → Active → Summarizing and back to Idle.
//
// Provider events are applied by a single Run loop in arrival order. Start
// and Stop run on the caller's goroutine; a generation counter ties each of
// them to the session it began so that results arriving after an error
// event or Reset are discarded instead of reviving an abandoned session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/provider"
)

var (
	ErrAlreadyInSession = errors.New("already in session")
	ErrNotActive        = errors.New("no active call")
	ErrSessionAbandoned = errors.New("session abandoned")
	ErrNoCallID         = errors.New("call id was never assigned")
	ErrProviderFailed   = errors.New("provider error")
)

type State int

const (
	Idle State = iota
	Starting
	Active
	Summarizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Summarizing:
		return "summarizing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Identity is the caller information handed to the assistant as session
// variables.
type Identity struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (i Identity) variables() map[string]string {
	return map[string]string{
		"firstName": i.FirstName,
		"lastName":  i.LastName,
		"email":     i.Email,
		"phone":     i.Phone,
	}
}

// Snapshot is a copy of the controller's observable state. Err holds the
// last surfaced error until the next Start or Reset.
type Snapshot struct {
	State       State
	CallID      string
	IsSpeaking  bool
	VolumeLevel uint8
	Err         error
}

type DetailsFetcher interface {
	CallDetails(ctx context.Context, callID string) (model.CallResult, error)
}

type ResultRecorder interface {
	RecordCallResult(result model.CallResult)
}

type Config struct {
	AssistantID  string
	Functions    []provider.FunctionDef
	UpdateBuffer int
	FetchTimeout time.Duration
}

type Controller struct {
	cfg      Config
	provider provider.Provider
	details  DetailsFetcher
	recorder ResultRecorder
	log      zerolog.Logger

	mu       sync.Mutex
	state    State
	callID   string
	speaking bool
	volume   uint8
	lastErr  error
	gen      uint64
	runCtx   context.Context

	updates chan Snapshot
	dropped atomic.Uint64
	fetches sync.WaitGroup
}

func New(cfg Config, p provider.Provider, details DetailsFetcher, recorder ResultRecorder, logger zerolog.Logger) *Controller {
	if cfg.UpdateBuffer <= 0 {
		cfg.UpdateBuffer = 32
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Controller{
		cfg:      cfg,
		provider: p,
		details:  details,
		recorder: recorder,
		log:      logger.With().Str("component", "session").Logger(),
		updates:  make(chan Snapshot, cfg.UpdateBuffer),
	}
}

// Updates delivers a snapshot after every change. Snapshots are dropped
// rather than blocking when the reader falls behind.
func (c *Controller) Updates() <-chan Snapshot {
	return c.updates
}

func (c *Controller) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Run applies provider events until ctx is done or the event stream closes.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()
	defer c.fetches.Wait()

	events := c.provider.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ev)
		}
	}
}

func (c *Controller) Start(ctx context.Context, id Identity) error {
	const op = "session.start"
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		return apperr.State(op, fmt.Errorf("%w (state %s)", ErrAlreadyInSession, state))
	}
	c.gen++
	gen := c.gen
	c.lastErr = nil
	c.callID = ""
	c.transitionLocked(Starting)
	c.mu.Unlock()

	call, err := c.provider.Start(ctx, c.cfg.AssistantID, provider.StartOptions{
		VariableValues: id.variables(),
		Functions:      c.cfg.Functions,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		if err == nil {
			c.log.Warn().Str("call_id", call.ID).Msg("discarding call id of abandoned session")
		}
		return apperr.State(op, ErrSessionAbandoned)
	}
	if err != nil {
		err = apperr.Transport(op, err)
		c.failLocked(err)
		return err
	}
	if c.callID == "" {
		c.callID = call.ID
		c.publishLocked()
	}
	c.log.Info().Str("call_id", c.callID).Msg("call created")
	return nil
}

// Stop ends the active call and blocks until its summary has been fetched.
// On success the result is recorded and the controller is Idle again.
func (c *Controller) Stop(ctx context.Context) (model.CallResult, error) {
	const op = "session.stop"
	c.mu.Lock()
	if c.state != Active {
		state := c.state
		c.mu.Unlock()
		return model.CallResult{}, apperr.State(op, fmt.Errorf("%w (state %s)", ErrNotActive, state))
	}
	gen := c.gen
	callID := c.callID
	c.transitionLocked(Summarizing)
	c.mu.Unlock()

	if err := c.provider.Stop(ctx); err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			return model.CallResult{}, apperr.State(op, ErrSessionAbandoned)
		}
		err = apperr.Transport(op, err)
		c.failLocked(err)
		return model.CallResult{}, err
	}
	return c.summarize(ctx, op, gen, callID)
}

// Reset forces Idle from any state. A live provider call is left running;
// callers stop it first.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lastErr = nil
	c.clearLocked()
	c.transitionLocked(Idle)
}

func (c *Controller) handle(ev provider.Event) {
	providerEventsTotal.WithLabelValues(ev.Name()).Inc()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case provider.CallStarted:
		if c.state != Starting {
			c.log.Debug().Str("state", c.state.String()).Msg("ignoring call-start")
			return
		}
		if ev.CallID != "" && c.callID == "" {
			c.callID = ev.CallID
		}
		c.transitionLocked(Active)
	case provider.SpeechStarted:
		if c.state == Active && !c.speaking {
			c.speaking = true
			c.publishLocked()
		}
	case provider.SpeechEnded:
		if c.state == Active && c.speaking {
			c.speaking = false
			c.publishLocked()
		}
	case provider.VolumeLevel:
		if c.state == Active && c.volume != ev.Level {
			c.volume = min(ev.Level, 100)
			c.publishLocked()
		}
	case provider.CallEnded:
		if c.state != Active {
			return
		}
		c.transitionLocked(Summarizing)
		gen, callID := c.gen, c.callID
		parent := c.runCtx
		if parent == nil {
			parent = context.Background()
		}
		c.fetches.Add(1)
		go func() {
			defer c.fetches.Done()
			ctx, cancel := context.WithTimeout(parent, c.cfg.FetchTimeout)
			defer cancel()
			_, _ = c.summarize(ctx, "session.call_ended", gen, callID)
		}()
	case provider.Failed:
		c.gen++
		c.failLocked(apperr.Transport("session.provider", fmt.Errorf("%w: %s", ErrProviderFailed, ev.Reason)))
	}
}

func (c *Controller) summarize(ctx context.Context, op string, gen uint64, callID string) (model.CallResult, error) {
	var (
		result model.CallResult
		err    error
	)
	if callID == "" {
		err = apperr.NotFound(op, ErrNoCallID)
	} else {
		result, err = c.details.CallDetails(ctx, callID)
		if err != nil && apperr.KindOf(err) == nil {
			err = apperr.Transport(op, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Warn().Str("call_id", callID).Msg("discarding call details of abandoned session")
		return model.CallResult{}, apperr.State(op, ErrSessionAbandoned)
	}
	if err != nil {
		c.failLocked(err)
		return model.CallResult{}, err
	}
	c.recorder.RecordCallResult(result)
	c.clearLocked()
	c.transitionLocked(Idle)
	c.log.Info().Str("call_id", callID).Bool("qualified", result.Analysis.IsQualified()).Msg("call summarized")
	return result, nil
}

func (c *Controller) failLocked(err error) {
	c.lastErr = err
	c.clearLocked()
	c.log.Error().Err(err).Msg("session failed")
	c.transitionLocked(Idle)
}

func (c *Controller) clearLocked() {
	c.callID = ""
	c.speaking = false
	c.volume = 0
}

func (c *Controller) transitionLocked(to State) {
	if c.state != to {
		c.log.Info().Str("from", c.state.String()).Str("to", to.String()).Str("call_id", c.callID).Msg("session transition")
		transitionsTotal.WithLabelValues(to.String()).Inc()
	}
	c.state = to
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	select {
	case c.updates <- c.snapshotLocked():
	default:
		c.dropped.Add(1)
		updatesDroppedTotal.Inc()
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:       c.state,
		CallID:      c.callID,
		IsSpeaking:  c.speaking,
		VolumeLevel: c.volume,
		Err:         c.lastErr,
	}
}
