// Package provider defines the boundary to the external speech-session
// service: a start/stop call API and a single ordered stream of typed events.
package provider

import "context"

// Event is one of CallStarted, CallEnded, SpeechStarted, SpeechEnded,
// VolumeLevel or Failed.
type Event interface {
	Name() string
	isEvent()
}

const (
	NameCallStart   = "call-start"
	NameCallEnd     = "call-end"
	NameSpeechStart = "speech-start"
	NameSpeechEnd   = "speech-end"
	NameVolumeLevel = "volume-level"
	NameError       = "error"
)

// CallStarted is emitted once the provider has connected the call. CallID is
// set when the provider includes it with the event.
type CallStarted struct {
	CallID string
}

type CallEnded struct{}

type SpeechStarted struct{}

type SpeechEnded struct{}

// VolumeLevel carries the assistant output level on a 0-100 scale.
type VolumeLevel struct {
	Level uint8
}

type Failed struct {
	Reason string
}

func (CallStarted) Name() string   { return NameCallStart }
func (CallEnded) Name() string     { return NameCallEnd }
func (SpeechStarted) Name() string { return NameSpeechStart }
func (SpeechEnded) Name() string   { return NameSpeechEnd }
func (VolumeLevel) Name() string   { return NameVolumeLevel }
func (Failed) Name() string        { return NameError }

func (CallStarted) isEvent()   {}
func (CallEnded) isEvent()     {}
func (SpeechStarted) isEvent() {}
func (SpeechEnded) isEvent()   {}
func (VolumeLevel) isEvent()   {}
func (Failed) isEvent()        {}

// Lossy reports whether ev may be dropped when the consumer falls behind.
// Speech and volume events are superseded by the next one; lifecycle events
// are not.
func Lossy(ev Event) bool {
	switch ev.(type) {
	case SpeechStarted, SpeechEnded, VolumeLevel:
		return true
	default:
		return false
	}
}

// ScaleVolume maps a raw level reported on [0, full] to 0-100, clamping
// anything outside the range. A non-positive full is taken as 1.
func ScaleVolume(raw, full float64) uint8 {
	if full <= 0 {
		full = 1
	}
	pct := raw / full * 100
	switch {
	case pct <= 0:
		return 0
	case pct >= 100:
		return 100
	default:
		return uint8(pct + 0.5)
	}
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type StartOptions struct {
	VariableValues map[string]string
	Functions      []FunctionDef
}

type Call struct {
	ID string
}

type Provider interface {
	Start(ctx context.Context, assistantID string, opts StartOptions) (Call, error)
	Stop(ctx context.Context) error
	Events() <-chan Event
}
