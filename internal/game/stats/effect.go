// Package stats implements timed and permanent stat modifiers and the
// derived-stat calculation pipeline.
package stats

import "time"

// Entity is the minimal view of a combatant the effect engine needs.
type Entity interface {
	// ID uniquely identifies the entity across its lifetime.
	ID() string
	// BaseStat returns the unmodified value of the named stat or skill.
	// ok is false when the entity has no such base stat.
	BaseStat(name string) (value int, ok bool)
}

// Condition decides whether an effect currently applies to an entity.
// A Condition that returns an error is treated as not applying.
type Condition func(Entity) (bool, error)

// Effect is a single stat modifier. Effects are immutable once added to
// the engine.
type Effect struct {
	// Stat is the name of the stat or skill being modified.
	Stat string
	// Value is the modification amount; for percentage effects it is the
	// percentage (50 = +50%).
	Value float64
	// Percentage marks Value as a multiplicative percentage modifier.
	Percentage bool
	// Duration is how long the effect lasts; zero means permanent.
	Duration time.Duration
	// Start is when the effect was applied. Set by the engine on add if zero.
	Start time.Time
	// Source tags where the effect came from (spell, item, test command).
	// Non-stacking effects replace same-source effects on the same stat.
	Source string
	// Stacks allows multiple effects from the same source to coexist.
	Stacks bool
	// Priority orders application; lower priorities apply first.
	Priority int
	// Condition, when non-nil, gates whether the effect applies on each
	// calculation. Errors fail safe: the effect is skipped.
	Condition Condition
}

// Expired reports whether the effect's duration has elapsed at now.
//
// Postcondition: Always false for permanent effects (Duration == 0).
func (e Effect) Expired(now time.Time) bool {
	if e.Duration == 0 {
		return false
	}
	return !now.Before(e.Start.Add(e.Duration))
}

// Remaining returns the time left before expiry, or (0, false) for a
// permanent effect.
func (e Effect) Remaining(now time.Time) (time.Duration, bool) {
	if e.Duration == 0 {
		return 0, false
	}
	left := e.Start.Add(e.Duration).Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}
