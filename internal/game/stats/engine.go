package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Engine maintains per-entity, per-stat effect lists and computes effective
// stat values with caching. All methods are safe for concurrent use.
//
// Invariant: a cached value for (entity, stat) is always consistent with the
// effect list at the time it was computed; any add/remove for that stat
// invalidates it. Expiry invalidates caches only through CleanExpired.
type Engine struct {
	mu      sync.Mutex
	now     func() time.Time
	logger  *zap.Logger
	effects map[string]map[string][]Effect // entityID → stat → effects
	cache   map[string]map[string]int      // entityID → stat → value
}

// NewEngine creates an empty effect Engine.
//
// Precondition: logger must be non-nil. now may be nil (defaults to time.Now).
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(logger *zap.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		now:     now,
		logger:  logger,
		effects: make(map[string]map[string][]Effect),
		cache:   make(map[string]map[string]int),
	}
}

// AddEffect applies eff to e's list for eff.Stat.
// When eff.Stacks is false, any existing effect on the same stat sharing
// eff.Source is removed first regardless of its own stacks flag, so a
// refreshed buff never duplicates. The stat's cached value is invalidated.
//
// Precondition: e must be non-nil; eff.Stat must be non-empty.
func (g *Engine) AddEffect(e Entity, eff Effect) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if eff.Start.IsZero() {
		eff.Start = g.now()
	}

	id := e.ID()
	byStat, ok := g.effects[id]
	if !ok {
		byStat = make(map[string][]Effect)
		g.effects[id] = byStat
	}

	list := byStat[eff.Stat]
	if !eff.Stacks {
		kept := list[:0]
		for _, existing := range list {
			if existing.Source != eff.Source {
				kept = append(kept, existing)
			}
		}
		list = kept
	}
	byStat[eff.Stat] = append(list, eff)

	g.invalidateLocked(id, eff.Stat)
}

// RemoveBySource removes every effect with the given source across all of
// e's stats, invalidating each affected cache entry.
func (g *Engine) RemoveBySource(e Entity, source string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(e.ID(), source, "")
}

// RemoveByStat clears all effects on the given stat for e.
func (g *Engine) RemoveByStat(e Entity, stat string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(e.ID(), "", stat)
}

// Remove removes effects matching both source and stat for e.
func (g *Engine) Remove(e Entity, source, stat string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(e.ID(), source, stat)
}

// removeLocked removes matching effects. Empty source matches any source;
// empty stat matches any stat. Caller must hold g.mu.
func (g *Engine) removeLocked(id, source, stat string) {
	byStat, ok := g.effects[id]
	if !ok {
		return
	}

	for statName, list := range byStat {
		if stat != "" && statName != stat {
			continue
		}
		var kept []Effect
		if source != "" {
			for _, eff := range list {
				if eff.Source != source {
					kept = append(kept, eff)
				}
			}
		}
		if len(kept) != len(list) {
			if len(kept) == 0 {
				delete(byStat, statName)
			} else {
				byStat[statName] = kept
			}
			g.invalidateLocked(id, statName)
		}
	}
}

// Forget drops all effect and cache state for the entity with the given ID.
// Called when an entity is destroyed.
func (g *Engine) Forget(entityID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.effects, entityID)
	delete(g.cache, entityID)
}

// Calculate returns the effective value of the named stat for e.
// ok is false when e has no corresponding base stat; callers fall back to
// their raw attribute in that case.
//
// Application order: all non-percentage effects add to the base first, in
// ascending priority; then percentage effects compound multiplicatively in
// ascending priority. The result is truncated toward zero as the final step.
// Effects that are expired, or whose condition fails or errors, are skipped.
//
// Postcondition: A second call with no intervening add/remove/expiry sweep
// returns the identical cached value.
func (g *Engine) Calculate(e Entity, stat string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := e.ID()
	if byStat, ok := g.cache[id]; ok {
		if v, ok := byStat[stat]; ok {
			return v, true
		}
	}

	base, ok := e.BaseStat(stat)
	if !ok {
		return 0, false
	}

	active := g.activeEffectsLocked(id, stat, e)

	// Stable sort keeps insertion order among equal priorities.
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	value := float64(base)
	for _, eff := range active {
		if !eff.Percentage {
			value += eff.Value
		}
	}
	for _, eff := range active {
		if eff.Percentage {
			value *= 1 + eff.Value/100.0
		}
	}

	result := int(value) // truncate toward zero

	byStat, ok := g.cache[id]
	if !ok {
		byStat = make(map[string]int)
		g.cache[id] = byStat
	}
	byStat[stat] = result

	return result, true
}

// activeEffectsLocked returns the live, applicable effects for (id, stat).
// Condition errors are logged and treated as inapplicable. Caller must hold g.mu.
func (g *Engine) activeEffectsLocked(id, stat string, e Entity) []Effect {
	list := g.effects[id][stat]
	if len(list) == 0 {
		return nil
	}

	now := g.now()
	active := make([]Effect, 0, len(list))
	for _, eff := range list {
		if eff.Expired(now) {
			continue
		}
		if eff.Condition != nil {
			applies, err := eff.Condition(e)
			if err != nil {
				g.logger.Warn("stat effect condition failed",
					zap.String("entity", id),
					zap.String("stat", stat),
					zap.String("source", eff.Source),
					zap.Error(err),
				)
				continue
			}
			if !applies {
				continue
			}
		}
		active = append(active, eff)
	}
	return active
}

// Active returns copies of the currently live effects for e, keyed by stat.
// Expired and condition-failing effects are excluded.
func (g *Engine) Active(e Entity) map[string][]Effect {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := e.ID()
	result := make(map[string][]Effect)
	for stat := range g.effects[id] {
		if active := g.activeEffectsLocked(id, stat, e); len(active) > 0 {
			result[stat] = active
		}
	}
	return result
}

// CleanExpired purges expired effects and invalidates their caches.
// This is the only path by which the passage of time alone invalidates a
// cached value; Calculate on a stale cache does not observe expiry until
// this has run.
//
// Postcondition: No expired effect remains in any entity's lists.
func (g *Engine) CleanExpired() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for id, byStat := range g.effects {
		for stat, list := range byStat {
			var kept []Effect
			for _, eff := range list {
				if !eff.Expired(now) {
					kept = append(kept, eff)
				}
			}
			if len(kept) == len(list) {
				continue
			}
			if len(kept) == 0 {
				delete(byStat, stat)
			} else {
				byStat[stat] = kept
			}
			g.invalidateLocked(id, stat)
		}
		if len(byStat) == 0 {
			delete(g.effects, id)
		}
	}
}

// RunSweeper calls CleanExpired every interval until ctx is cancelled.
// Intended to run in its own goroutine.
func (g *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.CleanExpired()
		}
	}
}

// invalidateLocked drops the cached value for (id, stat). Caller must hold g.mu.
func (g *Engine) invalidateLocked(id, stat string) {
	if byStat, ok := g.cache[id]; ok {
		delete(byStat, stat)
		if len(byStat) == 0 {
			delete(g.cache, id)
		}
	}
}
