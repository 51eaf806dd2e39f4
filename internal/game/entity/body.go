package entity

import (
	"fmt"
	"sync"

	"github.com/KentRRhodes/fafo/internal/game/dice"
)

// BodyLocation names one of the thirteen targetable body locations.
type BodyLocation string

const (
	LocHead      BodyLocation = "head"
	LocNeck      BodyLocation = "neck"
	LocChest     BodyLocation = "chest"
	LocBack      BodyLocation = "back"
	LocAbdomen   BodyLocation = "abdomen"
	LocRightArm  BodyLocation = "right_arm"
	LocLeftArm   BodyLocation = "left_arm"
	LocRightHand BodyLocation = "right_hand"
	LocLeftHand  BodyLocation = "left_hand"
	LocRightLeg  BodyLocation = "right_leg"
	LocLeftLeg   BodyLocation = "left_leg"
	LocRightEye  BodyLocation = "right_eye"
	LocLeftEye   BodyLocation = "left_eye"
)

// BodyLocations returns all thirteen locations in canonical order.
func BodyLocations() []BodyLocation {
	return []BodyLocation{
		LocHead, LocNeck, LocChest, LocBack, LocAbdomen,
		LocRightArm, LocLeftArm, LocRightHand, LocLeftHand,
		LocRightLeg, LocLeftLeg, LocRightEye, LocLeftEye,
	}
}

// ValidLocation reports whether loc names a real body location.
func ValidLocation(loc BodyLocation) bool {
	switch loc {
	case LocHead, LocNeck, LocChest, LocBack, LocAbdomen,
		LocRightArm, LocLeftArm, LocRightHand, LocLeftHand,
		LocRightLeg, LocLeftLeg, LocRightEye, LocLeftEye:
		return true
	default:
		return false
	}
}

// scarChancePercent is the probability that healing a wound leaves a scar.
const scarChancePercent = 50

// Body tracks wounds, scars, and the current aim for one combatant.
// All methods are safe for concurrent use.
//
// Invariant: wound and scar maps only ever hold the thirteen valid locations.
type Body struct {
	mu     sync.Mutex
	wounds map[BodyLocation][]string
	scars  map[BodyLocation][]string
	aim    BodyLocation // "" = no aim
}

// NewBody creates a Body with empty wound and scar lists for every location.
func NewBody() *Body {
	wounds := make(map[BodyLocation][]string, 13)
	scars := make(map[BodyLocation][]string, 13)
	for _, loc := range BodyLocations() {
		wounds[loc] = nil
		scars[loc] = nil
	}
	return &Body{wounds: wounds, scars: scars}
}

// AddWound records a wound at loc. Invalid locations are ignored.
func (b *Body) AddWound(loc BodyLocation, desc string) {
	if !ValidLocation(loc) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wounds[loc] = append(b.wounds[loc], desc)
}

// HealWound removes the first wound at loc matching desc, leaving a scar
// half the time. Returns false when no such wound exists.
//
// Precondition: src must be non-nil.
func (b *Body) HealWound(loc BodyLocation, desc string, src dice.Source) bool {
	if !ValidLocation(loc) {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.wounds[loc]
	for i, w := range list {
		if w != desc {
			continue
		}
		b.wounds[loc] = append(list[:i], list[i+1:]...)
		if src.Intn(100) < scarChancePercent {
			b.scars[loc] = append(b.scars[loc], fmt.Sprintf("Scar from: %s", desc))
		}
		return true
	}
	return false
}

// Wounds returns a copy of the wound list at loc.
func (b *Body) Wounds(loc BodyLocation) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.wounds[loc]...)
}

// Scars returns a copy of the scar list at loc.
func (b *Body) Scars(loc BodyLocation) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.scars[loc]...)
}

// SetAim targets loc for subsequent attacks.
//
// Postcondition: Returns an error naming the valid locations when loc is
// invalid; the previous aim is retained in that case.
func (b *Body) SetAim(loc BodyLocation) error {
	if !ValidLocation(loc) {
		return fmt.Errorf("invalid body location %q", loc)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aim = loc
	return nil
}

// ClearAim removes any current aim.
func (b *Body) ClearAim() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.aim = ""
}

// Aim returns the current aim, or ok=false when not aiming.
func (b *Body) Aim() (BodyLocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aim, b.aim != ""
}
