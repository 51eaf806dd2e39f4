// Package gameserver wires the game systems together: the shared tick loop
// driving timers, effect expiry, and corpse decay, plus the death hand-off
// between combat and the world.
package gameserver

import (
	"context"
	"sync"
	"time"
)

// TickManager runs a set of named periodic callbacks on a shared ticker.
// Each registered system is invoked sequentially once per interval with the
// tick's wall-clock time.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type TickManager struct {
	interval time.Duration
	mu       sync.Mutex
	systems  map[string]func(now time.Time)
}

// NewTickManager returns a manager that fires ticks every interval.
//
// Precondition: interval must be > 0.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		panic("gameserver.NewTickManager: interval must be > 0")
	}
	return &TickManager{
		interval: interval,
		systems:  make(map[string]func(now time.Time)),
	}
}

// Register adds a callback under name. Replaces any existing callback with
// that name.
func (m *TickManager) Register(name string, fn func(now time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems[name] = fn
}

// Unregister removes the callback registered under name.
func (m *TickManager) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.systems, name)
}

// Tick invokes every registered callback once with now.
func (m *TickManager) Tick(now time.Time) {
	m.mu.Lock()
	callbacks := make([]func(now time.Time), 0, len(m.systems))
	for _, fn := range m.systems {
		callbacks = append(callbacks, fn)
	}
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(now)
	}
}

// Run drives the tick loop until ctx is cancelled.
//
// Postcondition: all registered callbacks are invoked once per interval.
func (m *TickManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Tick(now)
		}
	}
}
