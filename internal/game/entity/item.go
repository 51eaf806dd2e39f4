package entity

// DefaultWeaponSpeed is assumed for bare hands and for items that do not
// declare a speed of their own.
const DefaultWeaponSpeed = 5

// Item is something a combatant can hold in a hand. Weapons carry a speed
// rating; shields carry a defensive bonus. Either may be zero.
type Item struct {
	Name        string
	Speed       int
	ShieldBonus int
}

// WeaponSpeed returns the item's speed rating, or DefaultWeaponSpeed when
// the item is nil or has no rating.
func (i *Item) WeaponSpeed() int {
	if i == nil || i.Speed <= 0 {
		return DefaultWeaponSpeed
	}
	return i.Speed
}

// DefenseBonus returns the item's shield bonus, or zero when the item is
// nil or has none.
func (i *Item) DefenseBonus() int {
	if i == nil || i.ShieldBonus < 0 {
		return 0
	}
	return i.ShieldBonus
}
