package entity

import "sync"

// Vitals tracks health and experience for one combatant.
// All methods are safe for concurrent use.
//
// Invariant: 0 <= current <= max at all times.
type Vitals struct {
	mu         sync.Mutex
	max        int
	current    int
	experience int
}

// NewVitals creates Vitals at full health.
//
// Precondition: maxHealth >= 1.
func NewVitals(maxHealth, experience int) Vitals {
	return Vitals{max: maxHealth, current: maxHealth, experience: experience}
}

// MaxHealth returns the health ceiling.
func (v *Vitals) MaxHealth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.max
}

// CurrentHealth returns the current health.
func (v *Vitals) CurrentHealth() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// TakeDamage reduces health by amount, flooring at zero. It returns the
// damage actually dealt and whether this call crossed from alive to dead.
// The crossing is decided under the vitals lock, so with concurrent
// callers exactly one observes killed=true.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHealth() >= 0.
func (v *Vitals) TakeDamage(amount int) (dealt int, killed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.current
	v.current -= amount
	if v.current < 0 {
		v.current = 0
	}
	return old - v.current, old > 0 && v.current == 0
}

// Heal restores health by amount, capping at max, and returns the health
// actually restored.
//
// Precondition: amount >= 0.
// Postcondition: CurrentHealth() <= MaxHealth().
func (v *Vitals) Heal(amount int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	old := v.current
	v.current += amount
	if v.current > v.max {
		v.current = v.max
	}
	return v.current - old
}

// Experience returns the accumulated (for players) or awarded-on-death
// (for NPCs) experience value.
func (v *Vitals) Experience() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.experience
}

// GainExperience adds amount and returns the new total.
//
// Precondition: amount >= 0.
func (v *Vitals) GainExperience(amount int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.experience += amount
	return v.experience
}
