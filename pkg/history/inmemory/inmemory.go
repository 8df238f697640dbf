// Package inmemory provides a history.Driver that keeps turns in memory.
package inmemory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/langchat/pkg/history"
)

// Driver implements history.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of turns
	mu sync.RWMutex

	// turns is keyed by turn ID
	turns map[string]*history.Turn
}

// NewDriver creates a new in-memory history driver.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string]*history.Turn),
	}
}

// Put stores a copy of turn, replacing any turn with the same ID.
func (d *Driver) Put(_ context.Context, turn *history.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ID == "" {
		return errors.New("cannot store turn without an ID")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *turn
	d.turns[turn.ID] = &stored
	return nil
}

// Get retrieves a turn by its ID.
func (d *Driver) Get(_ context.Context, id string) (*history.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turn, ok := d.turns[id]
	if !ok {
		return nil, history.ErrNotFound{ID: id}
	}

	out := *turn
	return &out, nil
}

// List returns turns newest first.
func (d *Driver) List(_ context.Context, opts history.ListOptions) ([]*history.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*history.Turn, 0, len(d.turns))
	for _, turn := range d.turns {
		if opts.SessionID != "" && turn.SessionID != opts.SessionID {
			continue
		}
		out := *turn
		result = append(result, &out)
	}

	slices.SortFunc(result, func(a, b *history.Turn) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// Clear deletes every stored turn.
func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	clear(d.turns)
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
