package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newSQLiteStore(t *testing.T) SnapshotStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "voxdash.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newFileStore(t *testing.T) SnapshotStore {
	t.Helper()
	store, err := NewFileSnapshotStore(filepath.Join(t.TempDir(), "snapshots"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func TestSnapshotStores(t *testing.T) {
	backends := map[string]func(*testing.T) SnapshotStore{
		"sqlite": newSQLiteStore,
		"file":   newFileStore,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			ctx := t.Context()

			if _, err := store.LoadSnapshot(ctx, KeyTodos); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for absent key, got %v", err)
			}

			if err := store.SaveSnapshot(ctx, KeyTodos, []byte(`[{"id":"a"}]`)); err != nil {
				t.Fatalf("first save: %v", err)
			}
			if err := store.SaveSnapshot(ctx, KeyTodos, []byte(`[{"id":"b"}]`)); err != nil {
				t.Fatalf("overwrite save: %v", err)
			}
			if err := store.SaveSnapshot(ctx, KeyReminders, []byte(`[]`)); err != nil {
				t.Fatalf("save reminders: %v", err)
			}

			got, err := store.LoadSnapshot(ctx, KeyTodos)
			if err != nil {
				t.Fatalf("load todos: %v", err)
			}
			if string(got) != `[{"id":"b"}]` {
				t.Fatalf("expected overwritten payload, got %s", got)
			}

			got, err = store.LoadSnapshot(ctx, KeyReminders)
			if err != nil {
				t.Fatalf("load reminders: %v", err)
			}
			if string(got) != `[]` {
				t.Fatalf("unexpected reminders payload: %s", got)
			}
		})
	}
}

func TestFileSnapshotStoreLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSnapshotStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.SaveSnapshot(t.Context(), KeyCalendarEvents, []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, KeyCalendarEvents+".json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err=%v", err)
	}
}

func TestNewFileSnapshotStoreRequiresDir(t *testing.T) {
	if _, err := NewFileSnapshotStore("  "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
