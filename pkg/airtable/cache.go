package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/clinicalrxq/member-portal/pkg/kv"
)

// MetadataCache holds at most one snapshot. Load returns (nil, nil) on a miss.
type MetadataCache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Store(ctx context.Context, snapshot *Snapshot) error
	Invalidate(ctx context.Context) error
}

// StateCache persists the snapshot as JSON in the runtime state store so it
// survives restarts and is shared across instances.
type StateCache struct {
	store stateStore
	key   string
}

var _ MetadataCache = (*StateCache)(nil)

func NewStateCache(store stateStore) *StateCache {
	return &StateCache{store: store, key: StateKeyMetaCache}
}

func (c *StateCache) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata cache: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode metadata cache: %w", err)
	}
	if snapshot.BaseID == "" || snapshot.FetchedAtEpochMs <= 0 {
		return nil, errors.New("decode metadata cache: incomplete entry")
	}
	return &snapshot, nil
}

func (c *StateCache) Store(ctx context.Context, snapshot *Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode metadata cache: %w", err)
	}
	return c.store.Set(ctx, c.key, payload, 0)
}

func (c *StateCache) Invalidate(ctx context.Context) error {
	return c.store.Del(ctx, c.key)
}

const memorySlot = "metadata"

// MemoryCache keeps the snapshot in process memory. Validity is decided by the
// resolver from the snapshot timestamp, so the LRU itself never expires entries.
type MemoryCache struct {
	lru *expirable.LRU[string, *Snapshot]
}

var _ MetadataCache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, *Snapshot](1, nil, 0)}
}

func (c *MemoryCache) Load(context.Context) (*Snapshot, error) {
	snapshot, ok := c.lru.Get(memorySlot)
	if !ok {
		return nil, nil
	}
	return snapshot, nil
}

func (c *MemoryCache) Store(_ context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New("metadata cache: nil snapshot")
	}
	c.lru.Add(memorySlot, snapshot)
	return nil
}

func (c *MemoryCache) Invalidate(context.Context) error {
	c.lru.Purge()
	return nil
}
