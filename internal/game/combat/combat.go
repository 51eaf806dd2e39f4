// Package combat implements attack resolution for fafo: roundtime and
// vulnerability timers, the hit/damage formula, and the death path.
package combat

import "time"

// Clock returns the current time. Injected so tests can control expiry.
type Clock func() time.Time

// Combatant is the capability set combat needs from an entity. Stat
// accessors return effect-derived values, not raw bases.
type Combatant interface {
	ID() string
	Name() string
	RoomID() string
	IsPlayer() bool

	Power() int
	Agility() int
	Speed() int
	Weapons() int
	Shields() int

	HasShieldEquipped() bool
	WeaponSpeed() int
	WeaponFinesse() int

	CurrentHealth() int
	MaxHealth() int
	// TakeDamage applies damage and reports the amount dealt plus whether
	// this call took the combatant from alive to dead. The transition must
	// be decided atomically with the health change so concurrent attackers
	// see at most one killed=true.
	TakeDamage(amount int) (dealt int, killed bool)

	Experience() int
	GainExperience(amount int) int
}

// Messenger delivers combat output. Send targets one entity; Broadcast
// targets everyone colocated in a room except the excluded IDs. Lines to
// entities without a connection are silently dropped.
type Messenger interface {
	Send(entityID, line string)
	Broadcast(roomID, line string, exclude ...string)
}

// Lifecycle receives the corpse/respawn hand-off when a combatant dies.
// For NPCs the implementation converts the body into a decaying corpse;
// for players it routes to the external respawn path.
type Lifecycle interface {
	OnDeath(defender Combatant, now time.Time)
}
