package entity

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/KentRRhodes/fafo/internal/game/stats"
)

// fixedSource returns the same value for every roll.
type fixedSource struct {
	value int
}

func (f fixedSource) Intn(n int) int {
	if f.value >= n {
		return n - 1
	}
	return f.value
}

func TestVitalsDamageFloorsAtZero(t *testing.T) {
	v := NewVitals(10, 0)
	dealt, killed := v.TakeDamage(4)
	assert.Equal(t, 4, dealt)
	assert.False(t, killed)
	assert.Equal(t, 6, v.CurrentHealth())

	dealt, killed = v.TakeDamage(100)
	assert.Equal(t, 6, dealt)
	assert.True(t, killed)
	assert.Equal(t, 0, v.CurrentHealth())

	// Already dead: more damage never reports a second crossing.
	dealt, killed = v.TakeDamage(5)
	assert.Equal(t, 0, dealt)
	assert.False(t, killed)
}

func TestVitalsKilledReportedExactlyOnce(t *testing.T) {
	v := NewVitals(10, 0)

	var wg sync.WaitGroup
	var kills atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, killed := v.TakeDamage(5); killed {
				kills.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, v.CurrentHealth())
	assert.Equal(t, int32(1), kills.Load())
}

func TestVitalsHealCapsAtMax(t *testing.T) {
	v := NewVitals(10, 0)
	v.TakeDamage(7)
	healed := v.Heal(100)
	assert.Equal(t, 7, healed)
	assert.Equal(t, 10, v.CurrentHealth())
}

func TestVitalsExperience(t *testing.T) {
	v := NewVitals(10, 25)
	assert.Equal(t, 25, v.Experience())
	assert.Equal(t, 40, v.GainExperience(15))
	assert.Equal(t, 40, v.Experience())
}

func TestVitalsHealthStaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 1000).Draw(t, "max")
		v := NewVitals(max, 0)
		ops := rapid.IntRange(1, 50).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			amount := rapid.IntRange(0, 2000).Draw(t, "amount")
			if rapid.Bool().Draw(t, "damage") {
				v.TakeDamage(amount)
			} else {
				v.Heal(amount)
			}
			h := v.CurrentHealth()
			if h < 0 || h > max {
				t.Fatalf("health %d outside [0, %d]", h, max)
			}
		}
	})
}

func TestBodyWoundAndHeal(t *testing.T) {
	b := NewBody()
	b.AddWound(LocChest, "a deep gash")
	b.AddWound(LocChest, "a shallow cut")
	require.Len(t, b.Wounds(LocChest), 2)

	// 0 < 50, so healing leaves a scar.
	healed := b.HealWound(LocChest, "a deep gash", fixedSource{value: 0})
	require.True(t, healed)
	assert.Equal(t, []string{"a shallow cut"}, b.Wounds(LocChest))
	assert.Equal(t, []string{"Scar from: a deep gash"}, b.Scars(LocChest))

	// 99 >= 50, so this one heals clean.
	healed = b.HealWound(LocChest, "a shallow cut", fixedSource{value: 99})
	require.True(t, healed)
	assert.Empty(t, b.Wounds(LocChest))
	assert.Len(t, b.Scars(LocChest), 1)
}

func TestBodyHealUnknownWound(t *testing.T) {
	b := NewBody()
	b.AddWound(LocHead, "a bruise")
	assert.False(t, b.HealWound(LocHead, "a missing wound", fixedSource{value: 0}))
	assert.False(t, b.HealWound(LocLeftLeg, "a bruise", fixedSource{value: 0}))
	assert.Len(t, b.Wounds(LocHead), 1)
}

func TestBodyIgnoresInvalidLocation(t *testing.T) {
	b := NewBody()
	b.AddWound(BodyLocation("tail"), "a kink")
	assert.Empty(t, b.Wounds(BodyLocation("tail")))
}

func TestBodyAim(t *testing.T) {
	b := NewBody()
	_, ok := b.Aim()
	assert.False(t, ok)

	require.NoError(t, b.SetAim(LocLeftEye))
	loc, ok := b.Aim()
	require.True(t, ok)
	assert.Equal(t, LocLeftEye, loc)

	assert.Error(t, b.SetAim(BodyLocation("tail")))

	b.ClearAim()
	_, ok = b.Aim()
	assert.False(t, ok)
}

func TestPlayerBaseStatLookup(t *testing.T) {
	attrs := DefaultAttributes()
	attrs.Power = 7
	skills := DefaultSkills()
	skills.Weapons = 12
	p := NewPlayer("Kent", attrs, skills, 50, nil)

	v, ok := p.BaseStat(StatPower)
	require.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = p.BaseStat(SkillWeapons)
	require.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = p.BaseStat("luck")
	assert.False(t, ok)
}

func TestPlayerDerivedWithoutEngine(t *testing.T) {
	attrs := DefaultAttributes()
	attrs.Agility = 4
	attrs.Speed = 3
	p := NewPlayer("Kent", attrs, DefaultSkills(), 50, nil)
	assert.Equal(t, 4, p.Agility())
	assert.Equal(t, 3, p.Speed())
}

func TestPlayerDerivedUsesEffects(t *testing.T) {
	engine := stats.NewEngine(zap.NewNop(), nil)
	attrs := DefaultAttributes()
	attrs.Power = 10
	p := NewPlayer("Kent", attrs, DefaultSkills(), 50, engine)

	engine.AddEffect(p, stats.Effect{
		Stat:   StatPower,
		Value:  5,
		Source: "potion",
	})
	assert.Equal(t, 15, p.Power())
}

func TestPlayerHands(t *testing.T) {
	p := NewPlayer("Kent", DefaultAttributes(), DefaultSkills(), 50, nil)
	assert.False(t, p.HasShieldEquipped())
	assert.Equal(t, DefaultWeaponSpeed, p.WeaponSpeed())

	p.SetRightHand(&Item{Name: "a steel longsword", Speed: 7})
	p.SetLeftHand(&Item{Name: "a wooden buckler"})
	assert.True(t, p.HasShieldEquipped())
	assert.Equal(t, 7, p.WeaponSpeed())
	require.NotNil(t, p.RightHand())
	assert.Equal(t, "a steel longsword", p.RightHand().Name)

	p.SetLeftHand(nil)
	assert.False(t, p.HasShieldEquipped())
}

func TestItemWeaponSpeedDefaults(t *testing.T) {
	var none *Item
	assert.Equal(t, DefaultWeaponSpeed, none.WeaponSpeed())
	assert.Equal(t, DefaultWeaponSpeed, (&Item{Name: "a torch"}).WeaponSpeed())
	assert.Equal(t, 3, (&Item{Name: "a dagger", Speed: 3}).WeaponSpeed())
}

func TestShieldBonusCountsOnlyWhenHeld(t *testing.T) {
	var none *Item
	assert.Equal(t, 0, none.DefenseBonus())

	p := NewPlayer("Kent", DefaultAttributes(), DefaultSkills(), 50, nil)
	base := p.Shields()

	p.SetLeftHand(&Item{Name: "a wooden buckler", ShieldBonus: 2})
	assert.Equal(t, base+2, p.Shields())

	p.SetLeftHand(nil)
	assert.Equal(t, base, p.Shields())
}

func TestNPCBecomeCorpse(t *testing.T) {
	n := NewNPC("rat", "a giant rat", DefaultAttributes(), DefaultSkills(), 8, 10, nil)
	assert.False(t, n.IsCorpse())
	require.NotEmpty(t, n.ID())
	assert.Equal(t, "rat", n.TemplateID())

	assert.True(t, n.BecomeCorpse())
	assert.True(t, n.IsCorpse())
	assert.Equal(t, "the corpse of a giant rat", n.Name())

	// A second conversion is not claimed and must not stack name prefixes.
	assert.False(t, n.BecomeCorpse())
	assert.Equal(t, "the corpse of a giant rat", n.Name())
}

func TestPlayerAndNPCIdentity(t *testing.T) {
	p := NewPlayer("Kent", DefaultAttributes(), DefaultSkills(), 50, nil)
	n := NewNPC("rat", "a giant rat", DefaultAttributes(), DefaultSkills(), 8, 10, nil)
	assert.True(t, p.IsPlayer())
	assert.False(t, n.IsPlayer())
	assert.NotEqual(t, p.ID(), n.ID())
}
