package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidImportance = errors.New("model: invalid reminder importance")
	ErrTitleRequired     = errors.New("model: title is required")
	ErrTextRequired      = errors.New("model: reminder text is required")
	ErrEventTimeRequired = errors.New("model: event_from and event_to are required")
)

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

func (i Importance) IsValid() bool {
	switch i {
	case ImportanceLow, ImportanceMedium, ImportanceHigh:
		return true
	default:
		return false
	}
}

func ParseImportance(raw string) (Importance, error) {
	imp := Importance(strings.ToLower(strings.TrimSpace(raw)))
	if !imp.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidImportance, raw)
	}
	return imp, nil
}

// Meta is the shape shared by every entity kind. ID, CreatedBy and CreatedAt
// never change after creation; SharedWith only grows.
type Meta struct {
	ID         string    `json:"id" yaml:"id"`
	CreatedBy  string    `json:"createdBy" yaml:"createdBy"`
	SharedWith []string  `json:"sharedWith" yaml:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
}

func (m Meta) EntityID() string { return m.ID }

func (m *Meta) share(email string) {
	m.SharedWith = append(append([]string(nil), m.SharedWith...), email)
}

type Todo struct {
	Meta        `yaml:",inline"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

func (t *Todo) Share(email string) { t.share(email) }

// Complete reports whether the todo changed.
func (t *Todo) Complete() bool {
	if t.Completed {
		return false
	}
	t.Completed = true
	return true
}

type Reminder struct {
	Meta       `yaml:",inline"`
	Text       string     `json:"reminder_text" yaml:"reminder_text"`
	Importance Importance `json:"importance" yaml:"importance"`
}

func (r *Reminder) Share(email string) { r.share(email) }

type CalendarEvent struct {
	Meta        `yaml:",inline"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	EventFrom   time.Time `json:"event_from" yaml:"event_from"`
	EventTo     time.Time `json:"event_to" yaml:"event_to"`
}

func (e *CalendarEvent) Share(email string) { e.share(email) }

type TodoFields struct {
	Title       string
	Description string
	CreatedBy   string
}

func (f TodoFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

type ReminderFields struct {
	Text       string
	Importance Importance
	CreatedBy  string
}

func (f ReminderFields) Validate() error {
	if strings.TrimSpace(f.Text) == "" {
		return ErrTextRequired
	}
	if !f.Importance.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidImportance, f.Importance)
	}
	return nil
}

// EventFields does not check EventFrom <= EventTo; callers may store
// inverted ranges.
type EventFields struct {
	Title       string
	Description string
	EventFrom   time.Time
	EventTo     time.Time
	CreatedBy   string
}

func (f EventFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if f.EventFrom.IsZero() || f.EventTo.IsZero() {
		return ErrEventTimeRequired
	}
	return nil
}
