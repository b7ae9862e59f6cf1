// Package store owns the todo, reminder and calendar-event collections and
// writes a full snapshot of the affected collection after every mutation.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/storage"
)

type Option func(*Store)

func WithCommitMode(mode CommitMode) Option {
	return func(s *Store) {
		if mode.IsValid() {
			s.mode = mode
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// ChangeFunc is called after a mutation of the named collection is committed.
type ChangeFunc func(key string)

type Store struct {
	mu        sync.Mutex
	todos     *collection[model.Todo]
	reminders *collection[model.Reminder]
	events    *collection[model.CalendarEvent]

	mode      CommitMode
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger
	observers []ChangeFunc
}

// Open loads every collection from snapshots. Absent or malformed snapshots
// start empty; a failing snapshot backend is returned as a TransportError.
func Open(ctx context.Context, snapshots storage.SnapshotStore, opts ...Option) (*Store, error) {
	s := &Store{
		mode:  CommitStaged,
		now:   time.Now,
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "store").Logger()

	var err error
	if s.todos, err = loadCollection[model.Todo](ctx, snapshots, storage.KeyTodos, s.mode, s.log); err != nil {
		return nil, err
	}
	if s.reminders, err = loadCollection[model.Reminder](ctx, snapshots, storage.KeyReminders, s.mode, s.log); err != nil {
		return nil, err
	}
	if s.events, err = loadCollection[model.CalendarEvent](ctx, snapshots, storage.KeyCalendarEvents, s.mode, s.log); err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("todos", len(s.todos.items)).
		Int("reminders", len(s.reminders.items)).
		Int("calendar_events", len(s.events.items)).
		Str("commit_mode", string(s.mode)).
		Msg("collections loaded")
	return s, nil
}

func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) meta(createdBy string) model.Meta {
	return model.Meta{
		ID:         s.newID(),
		CreatedBy:  createdBy,
		SharedWith: []string{},
		CreatedAt:  s.now().UTC(),
	}
}

// done logs the outcome and notifies observers when the mutation changed
// visible state. Called with s.mu held; observers run after it is released.
func (s *Store) done(key, op, id string, changed bool, err error) []ChangeFunc {
	if err != nil {
		s.log.Error().Err(err).Str("collection", key).Str("op", op).Str("id", id).Msg("snapshot write failed")
		if s.mode == CommitStaged {
			return nil
		}
	}
	if !changed {
		return nil
	}
	s.log.Debug().Str("collection", key).Str("op", op).Str("id", id).Msg("collection updated")
	return append([]ChangeFunc(nil), s.observers...)
}

func notify(observers []ChangeFunc, key string) {
	for _, fn := range observers {
		fn(key)
	}
}

func (s *Store) Todos() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todos.list()
}

func (s *Store) AddTodo(ctx context.Context, f model.TodoFields) (model.Todo, error) {
	if err := f.Validate(); err != nil {
		return model.Todo{}, apperr.Validation("store.add_todo", err)
	}
	s.mu.Lock()
	todo := model.Todo{Meta: s.meta(f.CreatedBy), Title: f.Title, Description: f.Description}
	err := s.todos.add(ctx, todo)
	observers := s.done(storage.KeyTodos, "add", todo.ID, true, err)
	s.mu.Unlock()

	notify(observers, storage.KeyTodos)
	if err != nil {
		return model.Todo{}, fmt.Errorf("add todo: %w", err)
	}
	return todo, nil
}

func (s *Store) RemoveTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	changed, err := s.todos.remove(ctx, id)
	observers := s.done(storage.KeyTodos, "remove", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyTodos)
	if err != nil {
		return fmt.Errorf("remove todo: %w", err)
	}
	return nil
}

func (s *Store) CompleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	changed, err := s.todos.update(ctx, "complete", id, func(t *model.Todo) bool { return t.Complete() })
	observers := s.done(storage.KeyTodos, "complete", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyTodos)
	if err != nil {
		return fmt.Errorf("complete todo: %w", err)
	}
	return nil
}

func (s *Store) ShareTodo(ctx context.Context, id, email string) error {
	s.mu.Lock()
	changed, err := s.todos.update(ctx, "share", id, func(t *model.Todo) bool {
		t.Share(email)
		return true
	})
	observers := s.done(storage.KeyTodos, "share", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyTodos)
	if err != nil {
		return fmt.Errorf("share todo: %w", err)
	}
	return nil
}

func (s *Store) Reminders() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reminders.list()
}

func (s *Store) AddReminder(ctx context.Context, f model.ReminderFields) (model.Reminder, error) {
	if err := f.Validate(); err != nil {
		return model.Reminder{}, apperr.Validation("store.add_reminder", err)
	}
	s.mu.Lock()
	reminder := model.Reminder{Meta: s.meta(f.CreatedBy), Text: f.Text, Importance: f.Importance}
	err := s.reminders.add(ctx, reminder)
	observers := s.done(storage.KeyReminders, "add", reminder.ID, true, err)
	s.mu.Unlock()

	notify(observers, storage.KeyReminders)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("add reminder: %w", err)
	}
	return reminder, nil
}

func (s *Store) RemoveReminder(ctx context.Context, id string) error {
	s.mu.Lock()
	changed, err := s.reminders.remove(ctx, id)
	observers := s.done(storage.KeyReminders, "remove", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyReminders)
	if err != nil {
		return fmt.Errorf("remove reminder: %w", err)
	}
	return nil
}

func (s *Store) ShareReminder(ctx context.Context, id, email string) error {
	s.mu.Lock()
	changed, err := s.reminders.update(ctx, "share", id, func(r *model.Reminder) bool {
		r.Share(email)
		return true
	})
	observers := s.done(storage.KeyReminders, "share", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyReminders)
	if err != nil {
		return fmt.Errorf("share reminder: %w", err)
	}
	return nil
}

func (s *Store) Events() []model.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.list()
}

func (s *Store) AddEvent(ctx context.Context, f model.EventFields) (model.CalendarEvent, error) {
	if err := f.Validate(); err != nil {
		return model.CalendarEvent{}, apperr.Validation("store.add_event", err)
	}
	s.mu.Lock()
	event := model.CalendarEvent{
		Meta:        s.meta(f.CreatedBy),
		Title:       f.Title,
		Description: f.Description,
		EventFrom:   f.EventFrom.UTC(),
		EventTo:     f.EventTo.UTC(),
	}
	err := s.events.add(ctx, event)
	observers := s.done(storage.KeyCalendarEvents, "add", event.ID, true, err)
	s.mu.Unlock()

	notify(observers, storage.KeyCalendarEvents)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("add calendar event: %w", err)
	}
	return event, nil
}

func (s *Store) RemoveEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	changed, err := s.events.remove(ctx, id)
	observers := s.done(storage.KeyCalendarEvents, "remove", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyCalendarEvents)
	if err != nil {
		return fmt.Errorf("remove calendar event: %w", err)
	}
	return nil
}

func (s *Store) ShareEvent(ctx context.Context, id, email string) error {
	s.mu.Lock()
	changed, err := s.events.update(ctx, "share", id, func(e *model.CalendarEvent) bool {
		e.Share(email)
		return true
	})
	observers := s.done(storage.KeyCalendarEvents, "share", id, changed, err)
	s.mu.Unlock()

	notify(observers, storage.KeyCalendarEvents)
	if err != nil {
		return fmt.Errorf("share calendar event: %w", err)
	}
	return nil
}
