package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: not found")

// Snapshot keys, one per entity collection.
const (
	KeyTodos          = "todos"
	KeyReminders      = "reminders"
	KeyCalendarEvents = "calendar_events"
)

// SnapshotStore persists whole-collection JSON documents. SaveSnapshot always
// replaces the previous payload for key; there are no partial writes.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, key string) ([]byte, error)
	SaveSnapshot(ctx context.Context, key string, payload []byte) error
}
