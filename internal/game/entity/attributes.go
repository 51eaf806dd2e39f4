// Package entity provides the player and hostile NPC combatant types:
// base attributes and skills, health and experience bookkeeping, equipment
// slots, and per-location wound tracking.
package entity

// Stat and skill names understood by BaseStat and the effect engine.
const (
	StatPower        = "power"
	StatAgility      = "agility"
	StatSpeed        = "speed"
	StatVitality     = "vitality"
	StatResistance   = "resistance"
	StatFocus        = "focus"
	StatDiscipline   = "discipline"
	StatIntelligence = "intelligence"
	StatWisdom       = "wisdom"
	StatCharisma     = "charisma"

	SkillWeapons          = "weapons"
	SkillShields          = "shields"
	SkillArmor            = "armor"
	SkillPhysicalFitness  = "physical_fitness"
	SkillCombatProwess    = "combat_prowess"
	SkillEvasiveManeuvers = "evasive_maneuvers"
)

// Attributes holds the ten core stats.
type Attributes struct {
	Power        int
	Agility      int
	Speed        int
	Vitality     int
	Resistance   int
	Focus        int
	Discipline   int
	Intelligence int
	Wisdom       int
	Charisma     int
}

// DefaultAttributes returns attributes with every stat at 1.
func DefaultAttributes() Attributes {
	return Attributes{
		Power: 1, Agility: 1, Speed: 1, Vitality: 1, Resistance: 1,
		Focus: 1, Discipline: 1, Intelligence: 1, Wisdom: 1, Charisma: 1,
	}
}

// Lookup returns the named attribute, or ok=false for an unknown name.
func (a Attributes) Lookup(name string) (int, bool) {
	switch name {
	case StatPower:
		return a.Power, true
	case StatAgility:
		return a.Agility, true
	case StatSpeed:
		return a.Speed, true
	case StatVitality:
		return a.Vitality, true
	case StatResistance:
		return a.Resistance, true
	case StatFocus:
		return a.Focus, true
	case StatDiscipline:
		return a.Discipline, true
	case StatIntelligence:
		return a.Intelligence, true
	case StatWisdom:
		return a.Wisdom, true
	case StatCharisma:
		return a.Charisma, true
	default:
		return 0, false
	}
}

// Set assigns the named attribute, returning false for an unknown name.
func (a *Attributes) Set(name string, value int) bool {
	switch name {
	case StatPower:
		a.Power = value
	case StatAgility:
		a.Agility = value
	case StatSpeed:
		a.Speed = value
	case StatVitality:
		a.Vitality = value
	case StatResistance:
		a.Resistance = value
	case StatFocus:
		a.Focus = value
	case StatDiscipline:
		a.Discipline = value
	case StatIntelligence:
		a.Intelligence = value
	case StatWisdom:
		a.Wisdom = value
	case StatCharisma:
		a.Charisma = value
	default:
		return false
	}
	return true
}

// Skills holds the six trained skills.
type Skills struct {
	Weapons          int
	Shields          int
	Armor            int
	PhysicalFitness  int
	CombatProwess    int
	EvasiveManeuvers int
}

// DefaultSkills returns skills with every value at 1.
func DefaultSkills() Skills {
	return Skills{
		Weapons: 1, Shields: 1, Armor: 1,
		PhysicalFitness: 1, CombatProwess: 1, EvasiveManeuvers: 1,
	}
}

// Lookup returns the named skill, or ok=false for an unknown name.
func (s Skills) Lookup(name string) (int, bool) {
	switch name {
	case SkillWeapons:
		return s.Weapons, true
	case SkillShields:
		return s.Shields, true
	case SkillArmor:
		return s.Armor, true
	case SkillPhysicalFitness:
		return s.PhysicalFitness, true
	case SkillCombatProwess:
		return s.CombatProwess, true
	case SkillEvasiveManeuvers:
		return s.EvasiveManeuvers, true
	default:
		return 0, false
	}
}

// Set assigns the named skill, returning false for an unknown name.
func (s *Skills) Set(name string, value int) bool {
	switch name {
	case SkillWeapons:
		s.Weapons = value
	case SkillShields:
		s.Shields = value
	case SkillArmor:
		s.Armor = value
	case SkillPhysicalFitness:
		s.PhysicalFitness = value
	case SkillCombatProwess:
		s.CombatProwess = value
	case SkillEvasiveManeuvers:
		s.EvasiveManeuvers = value
	default:
		return false
	}
	return true
}
