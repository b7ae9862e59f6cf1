// Package simulated is an offline stand-in for the hosted voice assistant.
// It produces the same event sequence a real call would and serves canned
// call details, so the dashboard can be driven end to end without network.
package simulated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/provider"
)

var (
	ErrCallInProgress = errors.New("simulated: call already in progress")
	ErrUnknownCall    = errors.New("simulated: unknown call")
)

type Config struct {
	Tick        time.Duration
	EventBuffer int
}

type callRecord struct {
	identity  map[string]string
	functions int
	started   time.Time
	ended     time.Time
	turns     int
}

type Provider struct {
	cfg     Config
	log     zerolog.Logger
	events  chan provider.Event
	done    chan struct{}
	closing sync.Once
	dropped atomic.Uint64
	now     func() time.Time

	mu     sync.Mutex
	active string
	cancel context.CancelFunc
	loop   sync.WaitGroup
	calls  map[string]*callRecord
}

var _ provider.Provider = (*Provider)(nil)

var volumeCurve = []float64{0.18, 0.52, 0.81, 0.64, 0.33, 0.07}

func New(cfg Config, logger zerolog.Logger) *Provider {
	if cfg.Tick <= 0 {
		cfg.Tick = 250 * time.Millisecond
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	return &Provider{
		cfg:    cfg,
		log:    logger.With().Str("component", "simulated-provider").Logger(),
		events: make(chan provider.Event, cfg.EventBuffer),
		done:   make(chan struct{}),
		now:    time.Now,
		calls:  map[string]*callRecord{},
	}
}

func (p *Provider) Events() <-chan provider.Event {
	return p.events
}

func (p *Provider) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *Provider) Start(ctx context.Context, assistantID string, opts provider.StartOptions) (provider.Call, error) {
	if err := ctx.Err(); err != nil {
		return provider.Call{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != "" {
		return provider.Call{}, ErrCallInProgress
	}

	id := uuid.NewString()
	identity := make(map[string]string, len(opts.VariableValues))
	for k, v := range opts.VariableValues {
		identity[k] = v
	}
	p.calls[id] = &callRecord{identity: identity, functions: len(opts.Functions), started: p.now()}
	p.active = id

	loopCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.loop.Add(1)
	go p.run(loopCtx, id)

	p.log.Info().Str("call_id", id).Str("assistant_id", assistantID).Msg("simulated call created")
	return provider.Call{ID: id}, nil
}

// Stop ends the active call. CallEnded is emitted after the speech loop has
// exited so it is always the last event of the call.
func (p *Provider) Stop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.finish()
	return nil
}

// Hangup ends the call as if the assistant had hung up.
func (p *Provider) Hangup() {
	p.finish()
}

// Fail injects a provider error into the event stream.
func (p *Provider) Fail(reason string) {
	p.emit(provider.Failed{Reason: reason})
}

func (p *Provider) finish() {
	p.mu.Lock()
	if p.active == "" {
		p.mu.Unlock()
		return
	}
	id := p.active
	p.active = ""
	p.cancel()
	p.mu.Unlock()

	p.loop.Wait()

	p.mu.Lock()
	if rec := p.calls[id]; rec != nil {
		rec.ended = p.now()
	}
	p.mu.Unlock()
	p.emit(provider.CallEnded{})
	p.log.Info().Str("call_id", id).Msg("simulated call ended")
}

func (p *Provider) run(ctx context.Context, id string) {
	defer p.loop.Done()
	select {
	case p.events <- provider.CallStarted{CallID: id}:
	case <-ctx.Done():
		return
	case <-p.done:
		return
	}

	ticker := time.NewTicker(p.cfg.Tick)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		phase := step % len(volumeCurve)
		if phase == 0 {
			p.emit(provider.SpeechStarted{})
			p.mu.Lock()
			if rec := p.calls[id]; rec != nil {
				rec.turns++
			}
			p.mu.Unlock()
		}
		p.emit(provider.VolumeLevel{Level: provider.ScaleVolume(volumeCurve[phase], 1)})
		if phase == len(volumeCurve)-1 {
			p.emit(provider.SpeechEnded{})
		}
		step++
	}
}

// emit drops speech and volume events when the consumer is behind; lifecycle
// events wait for room until Close.
func (p *Provider) emit(ev provider.Event) {
	if provider.Lossy(ev) {
		select {
		case p.events <- ev:
		default:
			p.dropped.Add(1)
		}
		return
	}
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// Close ends any active call and releases senders blocked on a full event
// channel. The event channel itself stays open.
func (p *Provider) Close() error {
	p.closing.Do(func() { close(p.done) })
	p.finish()
	return nil
}

// CallDetails returns a generated summary for a call placed through this
// provider.
func (p *Provider) CallDetails(ctx context.Context, callID string) (model.CallResult, error) {
	const op = "simulated.call_details"
	if err := ctx.Err(); err != nil {
		return model.CallResult{}, apperr.Transport(op, err)
	}
	if callID == "" {
		return model.CallResult{}, apperr.NotFound(op, nil)
	}
	p.mu.Lock()
	rec, ok := p.calls[callID]
	var snapshot callRecord
	if ok {
		snapshot = *rec
	}
	p.mu.Unlock()
	if !ok {
		return model.CallResult{}, apperr.NotFound(op, fmt.Errorf("%w: %s", ErrUnknownCall, callID))
	}

	result := model.CallResult{
		ID:      callID,
		Summary: summarize(snapshot),
		Analysis: model.CallAnalysis{StructuredData: map[string]any{
			"is_qualified": snapshot.identity["email"] != "",
			"turns":        snapshot.turns,
		}},
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return model.CallResult{}, apperr.Transport(op, err)
	}
	result.Raw = raw
	return result, nil
}

func summarize(rec callRecord) string {
	name := strings.TrimSpace(rec.identity["firstName"] + " " + rec.identity["lastName"])
	if name == "" {
		name = "the caller"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Call with %s\n\n", name)
	fmt.Fprintf(&b, "- Assistant turns: %d\n", rec.turns)
	fmt.Fprintf(&b, "- Tools available: %d\n", rec.functions)
	if !rec.ended.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", rec.ended.Sub(rec.started).Round(time.Second))
	}
	if email := rec.identity["email"]; email != "" {
		fmt.Fprintf(&b, "\nFollow-up will be sent to %s.\n", email)
	}
	return b.String()
}
