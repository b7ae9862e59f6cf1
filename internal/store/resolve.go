package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/storage"
)

var (
	ErrUnknownCollection = errors.New("store: unknown collection")
	ErrAmbiguousID       = errors.New("store: ambiguous id prefix")
	ErrNoSuchID          = errors.New("store: no entity with that id")
)

// ResolveID expands a unique id prefix, as typed in the palette or CLI, to the
// full entity id of the named collection.
func (s *Store) ResolveID(key, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", apperr.Validation("store.resolve", errors.New("id is required"))
	}

	s.mu.Lock()
	var ids []string
	switch key {
	case storage.KeyTodos:
		ids = matchPrefix(s.todos.items, prefix)
	case storage.KeyReminders:
		ids = matchPrefix(s.reminders.items, prefix)
	case storage.KeyCalendarEvents:
		ids = matchPrefix(s.events.items, prefix)
	default:
		s.mu.Unlock()
		return "", apperr.Validation("store.resolve", fmt.Errorf("%w: %s", ErrUnknownCollection, key))
	}
	s.mu.Unlock()

	switch len(ids) {
	case 0:
		return "", apperr.NotFound("store.resolve", fmt.Errorf("%w: %s", ErrNoSuchID, prefix))
	case 1:
		return ids[0], nil
	default:
		return "", apperr.Validation("store.resolve", fmt.Errorf("%w: %s matches %d entities", ErrAmbiguousID, prefix, len(ids)))
	}
}

func matchPrefix[T entity](items []T, prefix string) []string {
	var out []string
	for _, item := range items {
		id := item.EntityID()
		if id == prefix {
			return []string{id}
		}
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	return out
}

// TargetID resolves the id for remove, complete and share. An id that matches
// nothing comes back as typed so the mutation is a silent no-op; ambiguous
// prefixes still fail.
func (s *Store) TargetID(key, prefix string) (string, error) {
	id, err := s.ResolveID(key, prefix)
	if errors.Is(err, ErrNoSuchID) {
		return strings.TrimSpace(prefix), nil
	}
	return id, err
}
