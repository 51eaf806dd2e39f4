package entity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/KentRRhodes/fafo/internal/game/stats"
)

// Player is a player-controlled combatant.
//
// Derived stat reads route through the effect engine when one is attached,
// falling back to the raw attribute or skill value otherwise.
type Player struct {
	id   string
	name string

	mu        sync.Mutex
	roomID    string
	leftHand  *Item
	rightHand *Item

	attrs  Attributes
	skills Skills

	Vitals
	*Body

	effects *stats.Engine
}

// NewPlayer creates a player with a fresh identity at full health.
// effects may be nil, in which case derived stats equal raw values.
func NewPlayer(name string, attrs Attributes, skills Skills, maxHealth int, effects *stats.Engine) *Player {
	return &Player{
		id:      uuid.NewString(),
		name:    name,
		attrs:   attrs,
		skills:  skills,
		Vitals:  NewVitals(maxHealth, 0),
		Body:    NewBody(),
		effects: effects,
	}
}

// ID returns the player's unique identifier.
func (p *Player) ID() string { return p.id }

// Name returns the player's display name.
func (p *Player) Name() string { return p.name }

// IsPlayer reports that this combatant is player-controlled.
func (p *Player) IsPlayer() bool { return true }

// RoomID returns the identifier of the room the player occupies.
func (p *Player) RoomID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

// SetRoomID moves the player to the given room.
func (p *Player) SetRoomID(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomID = roomID
}

// BaseStat returns the raw value of the named attribute or skill, before
// any effect modifiers. ok is false for unknown names.
func (p *Player) BaseStat(name string) (int, bool) {
	if v, ok := p.attrs.Lookup(name); ok {
		return v, true
	}
	return p.skills.Lookup(name)
}

// derived resolves a stat through the effect engine, falling back to the
// base value when no engine is attached.
func (p *Player) derived(name string) int {
	if p.effects != nil {
		if v, ok := p.effects.Calculate(p, name); ok {
			return v
		}
	}
	v, _ := p.BaseStat(name)
	return v
}

// Power returns the effect-modified power attribute.
func (p *Player) Power() int { return p.derived(StatPower) }

// Agility returns the effect-modified agility attribute.
func (p *Player) Agility() int { return p.derived(StatAgility) }

// Speed returns the effect-modified speed attribute.
func (p *Player) Speed() int { return p.derived(StatSpeed) }

// Weapons returns the effect-modified weapons skill.
func (p *Player) Weapons() int { return p.derived(SkillWeapons) }

// Shields returns the effect-modified shields skill plus the defensive
// bonus of any shield held in the left hand.
func (p *Player) Shields() int { return p.derived(SkillShields) + p.LeftHand().DefenseBonus() }

// SetLeftHand places item in the player's left hand. nil empties the hand.
func (p *Player) SetLeftHand(item *Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leftHand = item
}

// SetRightHand places item in the player's right hand. nil empties the hand.
func (p *Player) SetRightHand(item *Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rightHand = item
}

// LeftHand returns the item held in the left hand, or nil.
func (p *Player) LeftHand() *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leftHand
}

// RightHand returns the item held in the right hand, or nil.
func (p *Player) RightHand() *Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rightHand
}

// HasShieldEquipped reports whether the left hand holds anything, which is
// what lets the shields skill count toward defense.
func (p *Player) HasShieldEquipped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leftHand != nil
}

// WeaponSpeed returns the speed rating of the right-hand weapon, or the
// bare-handed default when that hand is empty.
func (p *Player) WeaponSpeed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rightHand.WeaponSpeed()
}

// WeaponFinesse returns the player's finesse ranks with the held weapon.
// Finesse training has no progression yet, so everyone is untrained.
func (p *Player) WeaponFinesse() int { return 0 }

// Effects returns the attached effect engine, or nil.
func (p *Player) Effects() *stats.Engine { return p.effects }
