package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySnapshots struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   map[string]int
	failOn  map[string]bool
	loadErr error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[string][]byte{}, saves: map[string]int{}, failOn: map[string]bool{}}
}

func (m *memorySnapshots) LoadSnapshot(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (m *memorySnapshots) SaveSnapshot(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[key] {
		return errors.New("disk full")
	}
	m.data[key] = append([]byte(nil), payload...)
	m.saves[key]++
	return nil
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func openStore(t *testing.T, snaps storage.SnapshotStore, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock()), WithIDGenerator(sequentialIDs())}, opts...)
	s, err := Open(context.Background(), snaps, opts...)
	require.NoError(t, err)
	return s
}

func TestTodoScenario(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	todo, err := s.AddTodo(ctx, model.TodoFields{Title: "Buy milk", CreatedBy: "john@example.com"})
	require.NoError(t, err)

	todos := s.Todos()
	require.Len(t, todos, 1)
	assert.False(t, todos[0].Completed)
	assert.Equal(t, []string{}, todos[0].SharedWith)
	assert.Equal(t, "john@example.com", todos[0].CreatedBy)
	assert.Equal(t, fixedClock()(), todos[0].CreatedAt)

	require.NoError(t, s.CompleteTodo(ctx, todo.ID))
	assert.True(t, s.Todos()[0].Completed)

	require.NoError(t, s.ShareTodo(ctx, todo.ID, "jane@example.com"))
	assert.Equal(t, []string{"jane@example.com"}, s.Todos()[0].SharedWith)
}

func TestAddAssignsUniqueIDsAndPersistsPriorPlusNew(t *testing.T) {
	snaps := newMemorySnapshots()
	s, err := Open(context.Background(), snaps)
	require.NoError(t, err)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		r, err := s.AddReminder(ctx, model.ReminderFields{Text: fmt.Sprintf("r%d", i), Importance: model.ImportanceLow})
		require.NoError(t, err)
		require.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true

		reloaded := openStore(t, snaps)
		got := reloaded.Reminders()
		require.Len(t, got, i+1)
		assert.Equal(t, r.ID, got[i].ID)
	}
}

func TestCompleteIsIdempotentAndIgnoresUnknownIDs(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	todo, err := s.AddTodo(ctx, model.TodoFields{Title: "Write report"})
	require.NoError(t, err)

	require.NoError(t, s.CompleteTodo(ctx, todo.ID))
	require.NoError(t, s.CompleteTodo(ctx, todo.ID))
	assert.True(t, s.Todos()[0].Completed)
	assert.Equal(t, 2, snaps.saves[storage.KeyTodos], "second complete must not rewrite the snapshot")

	before := s.Todos()
	require.NoError(t, s.CompleteTodo(ctx, "missing"))
	assert.Equal(t, before, s.Todos())
}

func TestRemoveTwiceIsNoop(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	keep, err := s.AddEvent(ctx, model.EventFields{
		Title:     "Design review",
		EventFrom: time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC),
		EventTo:   time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	drop, err := s.AddEvent(ctx, model.EventFields{
		Title:     "Gym",
		EventFrom: time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC),
		EventTo:   time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, s.RemoveEvent(ctx, drop.ID))
	require.NoError(t, s.RemoveEvent(ctx, drop.ID))

	events := s.Events()
	require.Len(t, events, 1)
	assert.Equal(t, keep.ID, events[0].ID)
	assert.Equal(t, 3, snaps.saves[storage.KeyCalendarEvents])
}

func TestShareAppendsDuplicatesAndUnknownTargets(t *testing.T) {
	s := openStore(t, newMemorySnapshots())
	ctx := context.Background()

	r, err := s.AddReminder(ctx, model.ReminderFields{Text: "Call mom", Importance: model.ImportanceHigh})
	require.NoError(t, err)

	require.NoError(t, s.ShareReminder(ctx, r.ID, "jane@example.com"))
	require.NoError(t, s.ShareReminder(ctx, r.ID, "jane@example.com"))
	require.NoError(t, s.ShareReminder(ctx, r.ID, "nobody@nowhere.test"))
	assert.Equal(t, []string{"jane@example.com", "jane@example.com", "nobody@nowhere.test"}, s.Reminders()[0].SharedWith)

	require.NoError(t, s.ShareReminder(ctx, "missing", "jane@example.com"))
}

func TestRoundTripAcrossRestart(t *testing.T) {
	snaps, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "voxdash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = snaps.Close() })
	ctx := context.Background()

	s := openStore(t, snaps)
	_, err = s.AddTodo(ctx, model.TodoFields{Title: "Buy milk", Description: "2 litres", CreatedBy: "john@example.com"})
	require.NoError(t, err)
	second, err := s.AddTodo(ctx, model.TodoFields{Title: "Pay rent"})
	require.NoError(t, err)
	require.NoError(t, s.CompleteTodo(ctx, second.ID))
	require.NoError(t, s.ShareTodo(ctx, second.ID, "jane@example.com"))
	_, err = s.AddReminder(ctx, model.ReminderFields{Text: "Stretch", Importance: model.ImportanceMedium})
	require.NoError(t, err)
	_, err = s.AddEvent(ctx, model.EventFields{
		Title:     "Dentist",
		EventFrom: time.Date(2026, 10, 20, 8, 30, 0, 0, time.UTC),
		EventTo:   time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	restarted, err := Open(ctx, snaps)
	require.NoError(t, err)
	assert.Equal(t, s.Todos(), restarted.Todos())
	assert.Equal(t, s.Reminders(), restarted.Reminders())
	assert.Equal(t, s.Events(), restarted.Events())
}

func TestMalformedOrAbsentSnapshotsLoadEmpty(t *testing.T) {
	snaps := newMemorySnapshots()
	snaps.data[storage.KeyTodos] = []byte(`{not json`)
	snaps.data[storage.KeyReminders] = []byte(`null`)

	s := openStore(t, snaps)
	assert.Empty(t, s.Todos())
	assert.NotNil(t, s.Reminders())
	assert.Empty(t, s.Events())
}

func TestOpenFailsWhenBackendFails(t *testing.T) {
	snaps := newMemorySnapshots()
	snaps.loadErr = errors.New("io error")

	_, err := Open(context.Background(), snaps)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransport)
}

func TestValidationRejectsBeforeMutation(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)

	_, err := s.AddReminder(context.Background(), model.ReminderFields{Text: "x", Importance: "urgent"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.ErrorIs(t, err, model.ErrInvalidImportance)
	assert.Empty(t, s.Reminders())
	assert.Zero(t, snaps.saves[storage.KeyReminders])
}

func TestStagedCommitKeepsStateOnWriteFailure(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	todo, err := s.AddTodo(ctx, model.TodoFields{Title: "Buy milk"})
	require.NoError(t, err)

	snaps.failOn[storage.KeyTodos] = true
	err = s.CompleteTodo(ctx, todo.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.False(t, s.Todos()[0].Completed)

	_, err = s.AddTodo(ctx, model.TodoFields{Title: "Never visible"})
	require.Error(t, err)
	assert.Len(t, s.Todos(), 1)
}

func TestOptimisticCommitKeepsMutationOnWriteFailure(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps, WithCommitMode(CommitOptimistic))
	ctx := context.Background()

	todo, err := s.AddTodo(ctx, model.TodoFields{Title: "Buy milk"})
	require.NoError(t, err)

	snaps.failOn[storage.KeyTodos] = true
	err = s.CompleteTodo(ctx, todo.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransport)
	assert.True(t, s.Todos()[0].Completed)

	snaps.failOn[storage.KeyTodos] = false
	restarted := openStore(t, snaps)
	assert.False(t, restarted.Todos()[0].Completed, "failed write never reached the snapshot")
}

func TestCollectionsPersistIndependently(t *testing.T) {
	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	snaps.failOn[storage.KeyReminders] = true
	_, err := s.AddReminder(ctx, model.ReminderFields{Text: "x", Importance: model.ImportanceLow})
	require.Error(t, err)

	_, err = s.AddTodo(ctx, model.TodoFields{Title: "still works"})
	require.NoError(t, err)
	assert.Equal(t, 1, snaps.saves[storage.KeyTodos])
	assert.Zero(t, snaps.saves[storage.KeyReminders])
}

func TestOnChangeNotifiesCommittedMutations(t *testing.T) {
	s := openStore(t, newMemorySnapshots())
	ctx := context.Background()

	var keys []string
	s.OnChange(func(key string) { keys = append(keys, key) })

	todo, err := s.AddTodo(ctx, model.TodoFields{Title: "a"})
	require.NoError(t, err)
	require.NoError(t, s.RemoveTodo(ctx, "missing"))
	require.NoError(t, s.RemoveTodo(ctx, todo.ID))
	_, err = s.AddReminder(ctx, model.ReminderFields{Text: "b", Importance: model.ImportanceLow})
	require.NoError(t, err)

	assert.Equal(t, []string{storage.KeyTodos, storage.KeyTodos, storage.KeyReminders}, keys)
}

func TestResolveID(t *testing.T) {
	s := openStore(t, newMemorySnapshots(), WithIDGenerator(func() func() string {
		ids := []string{"abc123", "abd456", "xyz789"}
		i := 0
		return func() string {
			id := ids[i]
			i++
			return id
		}
	}()))
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		_, err := s.AddTodo(ctx, model.TodoFields{Title: title})
		require.NoError(t, err)
	}

	id, err := s.ResolveID(storage.KeyTodos, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = s.ResolveID(storage.KeyTodos, "ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = s.ResolveID(storage.KeyTodos, "zzz")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.ResolveID("notes", "abc")
	assert.ErrorIs(t, err, ErrUnknownCollection)

	id, err = s.TargetID(storage.KeyTodos, " zzz ")
	require.NoError(t, err)
	assert.Equal(t, "zzz", id)
	require.NoError(t, s.RemoveTodo(ctx, id))
	assert.Len(t, s.Todos(), 3)

	_, err = s.TargetID(storage.KeyTodos, "ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)
}

func TestSnapshotWritesAreCounted(t *testing.T) {
	ok := snapshotWritesTotal.WithLabelValues(storage.KeyReminders, "ok")
	failed := snapshotWritesTotal.WithLabelValues(storage.KeyReminders, "error")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	snaps := newMemorySnapshots()
	s := openStore(t, snaps)
	ctx := context.Background()

	_, err := s.AddReminder(ctx, model.ReminderFields{Text: "stretch", Importance: model.ImportanceLow})
	require.NoError(t, err)
	snaps.failOn[storage.KeyReminders] = true
	_, err = s.AddReminder(ctx, model.ReminderFields{Text: "again", Importance: model.ImportanceLow})
	require.Error(t, err)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}
