package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/KentRRhodes/fafo/internal/game/stats"
)

// NPC is a non-player combatant spawned from a template. On death it is
// converted in place into a corpse that no longer fights.
type NPC struct {
	id         string
	templateID string

	mu        sync.Mutex
	name      string
	roomID    string
	leftHand  *Item
	rightHand *Item
	corpse    bool

	attrs  Attributes
	skills Skills

	Vitals
	*Body

	effects *stats.Engine
}

// NewNPC creates an NPC instance with a fresh identity at full health.
// experience is the amount awarded to whoever kills it. effects may be nil.
func NewNPC(templateID, name string, attrs Attributes, skills Skills, maxHealth, experience int, effects *stats.Engine) *NPC {
	return &NPC{
		id:         uuid.NewString(),
		templateID: templateID,
		name:       name,
		attrs:      attrs,
		skills:     skills,
		Vitals:     NewVitals(maxHealth, experience),
		Body:       NewBody(),
		effects:    effects,
	}
}

// ID returns the instance's unique identifier.
func (n *NPC) ID() string { return n.id }

// TemplateID returns the identifier of the template this NPC was spawned from.
func (n *NPC) TemplateID() string { return n.templateID }

// Name returns the NPC's display name, which changes when it becomes a corpse.
func (n *NPC) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

// IsPlayer reports that this combatant is not player-controlled.
func (n *NPC) IsPlayer() bool { return false }

// RoomID returns the identifier of the room the NPC occupies.
func (n *NPC) RoomID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.roomID
}

// SetRoomID moves the NPC to the given room.
func (n *NPC) SetRoomID(roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomID = roomID
}

// BaseStat returns the raw value of the named attribute or skill, before
// any effect modifiers. ok is false for unknown names.
func (n *NPC) BaseStat(name string) (int, bool) {
	if v, ok := n.attrs.Lookup(name); ok {
		return v, true
	}
	return n.skills.Lookup(name)
}

func (n *NPC) derived(name string) int {
	if n.effects != nil {
		if v, ok := n.effects.Calculate(n, name); ok {
			return v
		}
	}
	v, _ := n.BaseStat(name)
	return v
}

// Power returns the effect-modified power attribute.
func (n *NPC) Power() int { return n.derived(StatPower) }

// Agility returns the effect-modified agility attribute.
func (n *NPC) Agility() int { return n.derived(StatAgility) }

// Speed returns the effect-modified speed attribute.
func (n *NPC) Speed() int { return n.derived(StatSpeed) }

// Weapons returns the effect-modified weapons skill.
func (n *NPC) Weapons() int { return n.derived(SkillWeapons) }

// Shields returns the effect-modified shields skill plus the defensive
// bonus of any shield held in the left hand.
func (n *NPC) Shields() int { return n.derived(SkillShields) + n.LeftHand().DefenseBonus() }

// SetLeftHand places item in the NPC's left hand. nil empties the hand.
func (n *NPC) SetLeftHand(item *Item) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leftHand = item
}

// SetRightHand places item in the NPC's right hand. nil empties the hand.
func (n *NPC) SetRightHand(item *Item) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rightHand = item
}

// LeftHand returns the item held in the left hand, or nil.
func (n *NPC) LeftHand() *Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.leftHand
}

// RightHand returns the item held in the right hand, or nil.
func (n *NPC) RightHand() *Item {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rightHand
}

// HasShieldEquipped reports whether the left hand holds anything.
func (n *NPC) HasShieldEquipped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.leftHand != nil
}

// WeaponSpeed returns the speed rating of the right-hand weapon, or the
// bare-handed default when that hand is empty.
func (n *NPC) WeaponSpeed() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rightHand.WeaponSpeed()
}

// WeaponFinesse returns the NPC's finesse ranks with the held weapon.
// Finesse training has no progression yet, so everyone is untrained.
func (n *NPC) WeaponFinesse() int { return 0 }

// Effects returns the attached effect engine, or nil.
func (n *NPC) Effects() *stats.Engine { return n.effects }

// BecomeCorpse converts the NPC into a corpse. The name is rewritten so
// room messages read naturally, and combat-facing callers must check
// IsCorpse before engaging. Returns true only for the call that performed
// the conversion, decided under the NPC lock, so concurrent callers see at
// most one true.
func (n *NPC) BecomeCorpse() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.corpse {
		return false
	}
	n.corpse = true
	n.name = fmt.Sprintf("the corpse of %s", n.name)
	return true
}

// IsCorpse reports whether the NPC has died and been converted.
func (n *NPC) IsCorpse() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.corpse
}
