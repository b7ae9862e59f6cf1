package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/storage"
)

type CommitMode string

const (
	// CommitStaged makes a mutation visible only after its snapshot is written.
	CommitStaged CommitMode = "staged"
	// CommitOptimistic applies the mutation in memory first and keeps it even
	// when the snapshot write fails.
	CommitOptimistic CommitMode = "optimistic"
)

func (m CommitMode) IsValid() bool {
	return m == CommitStaged || m == CommitOptimistic
}

type entity interface {
	EntityID() string
}

type collection[T entity] struct {
	key       string
	items     []T
	snapshots storage.SnapshotStore
	mode      CommitMode
}

func loadCollection[T entity](ctx context.Context, snapshots storage.SnapshotStore, key string, mode CommitMode, log zerolog.Logger) (*collection[T], error) {
	c := &collection[T]{key: key, items: []T{}, snapshots: snapshots, mode: mode}
	raw, err := snapshots.LoadSnapshot(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c, nil
		}
		return nil, apperr.Transport("store.load."+key, err)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn().Err(err).Str("collection", key).Msg("malformed snapshot, starting empty")
		return c, nil
	}
	if items != nil {
		c.items = items
	}
	return c, nil
}

func (c *collection[T]) list() []T {
	return slices.Clone(c.items)
}

func (c *collection[T]) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool { return item.EntityID() == id })
}

func (c *collection[T]) add(ctx context.Context, item T) error {
	next := append(slices.Clone(c.items), item)
	return c.commit(ctx, "add", next)
}

// remove reports whether an entity was dropped.
func (c *collection[T]) remove(ctx context.Context, id string) (bool, error) {
	if c.indexOf(id) < 0 {
		return false, nil
	}
	next := slices.DeleteFunc(slices.Clone(c.items), func(item T) bool { return item.EntityID() == id })
	return true, c.commit(ctx, "remove", next)
}

// update applies mutate to a copy of the entity with the given id. Missing ids
// and mutations that report no change are silent no-ops.
func (c *collection[T]) update(ctx context.Context, op, id string, mutate func(*T) bool) (bool, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	next := slices.Clone(c.items)
	if !mutate(&next[idx]) {
		return false, nil
	}
	return true, c.commit(ctx, op, next)
}

func (c *collection[T]) commit(ctx context.Context, op string, next []T) error {
	if c.mode == CommitOptimistic {
		c.items = next
		return c.persist(ctx, op, next)
	}
	if err := c.persist(ctx, op, next); err != nil {
		return err
	}
	c.items = next
	return nil
}

func (c *collection[T]) persist(ctx context.Context, op string, items []T) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return apperr.Transport("store."+op+"."+c.key, err)
	}
	if err := c.snapshots.SaveSnapshot(ctx, c.key, payload); err != nil {
		snapshotWritesTotal.WithLabelValues(c.key, "error").Inc()
		return apperr.Transport("store."+op+"."+c.key, err)
	}
	snapshotWritesTotal.WithLabelValues(c.key, "ok").Inc()
	return nil
}
