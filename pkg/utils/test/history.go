package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/langchat/pkg/history"
	"github.com/papercomputeco/langchat/pkg/history/inmemory"
)

// MockHistoryDriver is an in-memory history driver that records calls and
// can be told to fail.
type MockHistoryDriver struct {
	*inmemory.Driver

	mu sync.Mutex

	// Puts accumulates every turn passed to Put, including failed ones.
	Puts []*history.Turn

	// FailPut causes Put to return an error.
	FailPut bool

	// Closed is set once Close has been called.
	Closed bool
}

// NewMockHistoryDriver creates a new mock history driver.
func NewMockHistoryDriver() *MockHistoryDriver {
	return &MockHistoryDriver{
		Driver: inmemory.NewDriver(),
	}
}

// Put records the call and stores turn unless FailPut is set.
func (m *MockHistoryDriver) Put(ctx context.Context, turn *history.Turn) error {
	m.mu.Lock()
	m.Puts = append(m.Puts, turn)
	fail := m.FailPut
	m.mu.Unlock()

	if fail {
		return errors.New("mock put error")
	}
	return m.Driver.Put(ctx, turn)
}

// PutCount returns how many times Put was called.
func (m *MockHistoryDriver) PutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Puts)
}

// Close marks the driver closed.
func (m *MockHistoryDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.Driver.Close()
}
