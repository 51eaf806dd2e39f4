package combat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind distinguishes the two per-entity combat timers.
type Kind int

const (
	// KindAction is the roundtime lock created by an attack attempt.
	KindAction Kind = iota
	// KindVulnerability is the defense penalty created by certain misses.
	KindVulnerability
)

// String returns a human-readable kind label.
func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindVulnerability:
		return "vulnerability"
	default:
		return "unknown"
	}
}

// expiry messages delivered when a timer ends, by natural expiry or stop.
const (
	actionRecoveredMsg = "You have recovered."
	guardRecoveredMsg  = "You manage to recover your guard."
)

type timerKey struct {
	entityID string
	kind     Kind
}

type timerEntry struct {
	start    time.Time
	duration time.Duration
	// reduction is the defense reduction percent; only meaningful for
	// KindVulnerability entries.
	reduction int
}

func (e *timerEntry) remaining(now time.Time) time.Duration {
	r := e.start.Add(e.duration).Sub(now)
	if r < 0 {
		return 0
	}
	return r
}

// Timers is a shared timer wheel holding every live combat timer, keyed by
// (entity, kind). A single once-per-tick sweep expires due timers instead
// of one scheduled callback per timer.
// All methods are safe for concurrent use.
//
// Invariant: at most one live timer per (entity, kind) pair. A timer's end
// notification fires exactly once, whether it expires naturally or is
// stopped programmatically.
type Timers struct {
	logger    *zap.Logger
	messenger Messenger
	clock     Clock
	interval  time.Duration

	mu      sync.Mutex
	entries map[timerKey]*timerEntry
}

// NewTimers creates an empty timer wheel.
//
// Precondition: logger and messenger must be non-nil; interval must be > 0.
// clock may be nil (defaults to time.Now).
func NewTimers(logger *zap.Logger, messenger Messenger, clock Clock, interval time.Duration) *Timers {
	if clock == nil {
		clock = time.Now
	}
	return &Timers{
		logger:    logger,
		messenger: messenger,
		clock:     clock,
		interval:  interval,
		entries:   make(map[timerKey]*timerEntry),
	}
}

// Handle refers to one live (or already finished) timer. Remaining and Stop
// on a finished timer are safe no-ops.
type Handle struct {
	timers   *Timers
	entityID string
	kind     Kind
}

// EntityID returns the owning entity's identifier.
func (h *Handle) EntityID() string { return h.entityID }

// Kind returns the timer's kind.
func (h *Handle) Kind() Kind { return h.kind }

// Remaining returns the time left before expiry, or 0 once finished.
func (h *Handle) Remaining() time.Duration {
	return h.timers.remaining(h.entityID, h.kind)
}

// Stop ends the timer early, firing its end notification if it was live.
func (h *Handle) Stop() {
	h.timers.Stop(h.entityID, h.kind)
}

// StartAction installs an entity's roundtime timer. An existing action
// timer is torn down first, firing its end notification.
//
// Precondition: duration > 0.
// Postcondition: ActionRemaining(entityID) == duration at the clock's now.
func (t *Timers) StartAction(entityID string, duration time.Duration) *Handle {
	t.start(entityID, KindAction, duration, 0)
	return &Handle{timers: t, entityID: entityID, kind: KindAction}
}

// ExtendAction adds extra to a live action timer's duration, leaving its
// start time unchanged. Returns false when the entity has no live action
// timer.
//
// Precondition: extra > 0.
func (t *Timers) ExtendAction(entityID string, extra time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[timerKey{entityID, KindAction}]
	if !ok {
		return false
	}
	e.duration += extra
	return true
}

// ActionRemaining returns the time left on an entity's roundtime, or 0 when
// none is live. A timer past its deadline but not yet swept reports 0, so
// gating on this value never over-locks an entity.
func (t *Timers) ActionRemaining(entityID string) time.Duration {
	return t.remaining(entityID, KindAction)
}

// StartVulnerability installs an entity's vulnerability timer with the
// given defense reduction percent. An existing vulnerability timer is torn
// down first, firing its end notification.
//
// Precondition: duration > 0; 0 <= reduction <= 100.
func (t *Timers) StartVulnerability(entityID string, duration time.Duration, reduction int) *Handle {
	t.start(entityID, KindVulnerability, duration, reduction)
	return &Handle{timers: t, entityID: entityID, kind: KindVulnerability}
}

// VulnerabilityRemaining returns the time left on an entity's vulnerability
// timer, or 0 when none is live.
func (t *Timers) VulnerabilityRemaining(entityID string) time.Duration {
	return t.remaining(entityID, KindVulnerability)
}

// DefenseModifier returns the multiplier applied to an entity's defense
// base: max(0, 1 - reduction/100) while a vulnerability timer is installed,
// 1.0 otherwise. The reduction applies until the timer is removed by a
// sweep or an explicit stop, not at the deadline instant.
func (t *Timers) DefenseModifier(entityID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[timerKey{entityID, KindVulnerability}]
	if !ok {
		return 1.0
	}
	m := 1.0 - float64(e.reduction)/100.0
	if m < 0 {
		return 0
	}
	return m
}

// Stop removes an entity's timer of the given kind, firing its end
// notification. Safe to call multiple times; only the call that actually
// removes the entry notifies.
//
// Postcondition: no timer of that kind is installed for the entity.
func (t *Timers) Stop(entityID string, kind Kind) {
	t.mu.Lock()
	_, ok := t.entries[timerKey{entityID, kind}]
	if ok {
		delete(t.entries, timerKey{entityID, kind})
	}
	t.mu.Unlock()

	if ok {
		t.notifyEnd(entityID, kind)
	}
}

// StopAll removes every live timer, firing each end notification. Called on
// shutdown so no entity is left locked or exposed across a restart.
func (t *Timers) StopAll() {
	t.mu.Lock()
	keys := make([]timerKey, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.entries = make(map[timerKey]*timerEntry)
	t.mu.Unlock()

	for _, k := range keys {
		t.notifyEnd(k.entityID, k.kind)
	}
}

// Tick sweeps the wheel, removing and notifying every timer whose deadline
// has passed.
func (t *Timers) Tick(now time.Time) {
	t.mu.Lock()
	var due []timerKey
	for k, e := range t.entries {
		if e.remaining(now) == 0 {
			due = append(due, k)
		}
	}
	for _, k := range due {
		delete(t.entries, k)
	}
	t.mu.Unlock()

	for _, k := range due {
		t.notifyEnd(k.entityID, k.kind)
	}
}

// Run sweeps the wheel once per interval until ctx is cancelled, then stops
// every remaining timer.
func (t *Timers) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.StopAll()
			return
		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}

// Live returns the number of installed timers.
func (t *Timers) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Timers) start(entityID string, kind Kind, duration time.Duration, reduction int) {
	k := timerKey{entityID, kind}

	t.mu.Lock()
	_, replaced := t.entries[k]
	t.entries[k] = &timerEntry{
		start:     t.clock(),
		duration:  duration,
		reduction: reduction,
	}
	t.mu.Unlock()

	// A replaced predecessor still owes its end notification.
	if replaced {
		t.notifyEnd(entityID, kind)
	}

	t.logger.Debug("timer started",
		zap.String("entity", entityID),
		zap.Stringer("kind", kind),
		zap.Duration("duration", duration))
}

func (t *Timers) remaining(entityID string, kind Kind) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[timerKey{entityID, kind}]
	if !ok {
		return 0
	}
	return e.remaining(t.clock())
}

func (t *Timers) notifyEnd(entityID string, kind Kind) {
	switch kind {
	case KindAction:
		t.messenger.Send(entityID, actionRecoveredMsg)
	case KindVulnerability:
		t.messenger.Send(entityID, guardRecoveredMsg)
	}
	t.logger.Debug("timer ended",
		zap.String("entity", entityID),
		zap.Stringer("kind", kind))
}
