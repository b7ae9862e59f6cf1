// Package flow maps the session state onto the screen the voice view shows.
package flow

import "github.com/sandeepkv93/voxdash/internal/session"

type Screen int

const (
	IntakeForm Screen = iota
	ActiveCall
	Summary
)

func (s Screen) String() string {
	switch s {
	case IntakeForm:
		return "intake-form"
	case ActiveCall:
		return "active-call"
	case Summary:
		return "summary"
	default:
		return "unknown"
	}
}

// Select is total over session states. Once a summary has been fetched the
// controller is Idle again, so a recorded call result keeps the summary on
// screen until it is cleared.
func Select(state session.State, hasCallResult bool) Screen {
	switch state {
	case session.Active:
		return ActiveCall
	case session.Summarizing:
		return Summary
	case session.Starting:
		return IntakeForm
	default:
		if hasCallResult {
			return Summary
		}
		return IntakeForm
	}
}
