package combat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/KentRRhodes/fafo/internal/game/dice"
)

// scriptedSource returns queued values in order, repeating the last one
// once the queue drains.
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.pos]
	if s.pos < len(s.values)-1 {
		s.pos++
	}
	if v >= n {
		return n - 1
	}
	return v
}

type fakeCombatant struct {
	id     string
	name   string
	room   string
	player bool

	power   int
	agility int
	speed   int
	weapons int
	shields int

	shield      bool
	weaponSpeed int
	finesse     int

	mu        sync.Mutex
	health    int
	maxHealth int
	xp        int
}

func (c *fakeCombatant) ID() string { return c.id }
func (c *fakeCombatant) Name() string { return c.name }
func (c *fakeCombatant) RoomID() string { return c.room }
func (c *fakeCombatant) IsPlayer() bool { return c.player }
func (c *fakeCombatant) Power() int { return c.power }
func (c *fakeCombatant) Agility() int { return c.agility }
func (c *fakeCombatant) Speed() int { return c.speed }
func (c *fakeCombatant) Weapons() int { return c.weapons }
func (c *fakeCombatant) Shields() int { return c.shields }
func (c *fakeCombatant) HasShieldEquipped() bool { return c.shield }
func (c *fakeCombatant) WeaponSpeed() int { return c.weaponSpeed }
func (c *fakeCombatant) WeaponFinesse() int { return c.finesse }
func (c *fakeCombatant) CurrentHealth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

func (c *fakeCombatant) MaxHealth() int { return c.maxHealth }

func (c *fakeCombatant) TakeDamage(amount int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.health
	c.health -= amount
	if c.health < 0 {
		c.health = 0
	}
	return old - c.health, old > 0 && c.health == 0
}

func (c *fakeCombatant) Experience() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xp
}

func (c *fakeCombatant) GainExperience(amount int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.xp += amount
	return c.xp
}

type fakeLifecycle struct {
	mu     sync.Mutex
	deaths []string
}

func (l *fakeLifecycle) OnDeath(defender Combatant, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deaths = append(l.deaths, defender.ID())
}

// newAttacker is the worked-example attacker: attack base 12.
func newAttacker() *fakeCombatant {
	return &fakeCombatant{
		id: "att", name: "Kent", room: "arena", player: true,
		power: 1, agility: 5, speed: 5, weapons: 2,
		weaponSpeed: 5, health: 100, maxHealth: 100,
	}
}

// newDefender is the worked-example defender: defense base 6, no shield.
func newDefender() *fakeCombatant {
	return &fakeCombatant{
		id: "def", name: "a goblin", room: "arena",
		power: 1, agility: 3, speed: 3,
		weaponSpeed: 5, health: 100, maxHealth: 100, xp: 10,
	}
}

type resolverHarness struct {
	resolver  *Resolver
	timers    *Timers
	messenger *recordingMessenger
	clock     *fakeClock
	lifecycle *fakeLifecycle
}

func newHarness(rolls ...int) *resolverHarness {
	msgr := newRecordingMessenger()
	clock := newFakeClock()
	timers := newTestTimers(msgr, clock)
	lifecycle := &fakeLifecycle{}
	roller := dice.NewRoller(&scriptedSource{values: rolls}, nil)
	return &resolverHarness{
		resolver:  NewResolver(zap.NewNop(), roller, timers, msgr, lifecycle, clock.Now, 5*time.Second),
		timers:    timers,
		messenger: msgr,
		clock:     clock,
		lifecycle: lifecycle,
	}
}

func TestCleanHitWorkedExample(t *testing.T) {
	// attacker_roll=50, defender_roll=10: end_roll = 62 - 16 = 46.
	h := newHarness(49, 9)
	att, def := newAttacker(), newDefender()

	res := h.resolver.ProcessAttack(att, def)
	require.False(t, res.Rejected)
	assert.True(t, res.Hit)
	assert.False(t, res.PowerAssisted)
	assert.Equal(t, 46, res.EndRoll)
	assert.Equal(t, 46, res.Damage)
	assert.Equal(t, 54, def.CurrentHealth())
	require.NotNil(t, res.Timer)
	assert.Equal(t, 5*time.Second, res.Timer.Remaining())

	assert.Contains(t, h.messenger.sentTo("att"), "You hit a goblin for 46 damage!")
	assert.Contains(t, h.messenger.sentTo("def"), "Kent hits you for 46 damage!")
	assert.Contains(t, h.messenger.roomLines("arena"), "Kent hits a goblin for 46 damage!")
}

func TestSecondAttackRejectedWhileLocked(t *testing.T) {
	h := newHarness(49, 9)
	att, def := newAttacker(), newDefender()

	first := h.resolver.ProcessAttack(att, def)
	require.True(t, first.Hit)
	healthAfterFirst := def.CurrentHealth()

	second := h.resolver.ProcessAttack(att, def)
	assert.True(t, second.Rejected)
	assert.False(t, second.Hit)
	assert.Equal(t, 0, second.Damage)
	assert.Nil(t, second.Timer)
	assert.Equal(t, healthAfterFirst, def.CurrentHealth())
	assert.Contains(t, h.messenger.sentTo("att"),
		"You are still recovering from your last action! (5s remaining)")
}

func TestAttackAllowedAfterRoundtimeElapses(t *testing.T) {
	h := newHarness(49, 9)
	att, def := newAttacker(), newDefender()

	require.True(t, h.resolver.ProcessAttack(att, def).Hit)
	h.clock.Advance(5 * time.Second)

	// The sweep has not run, but the deadline has passed.
	res := h.resolver.ProcessAttack(att, def)
	assert.False(t, res.Rejected)
	assert.True(t, res.Hit)
}

func TestPowerAssistedBoundary(t *testing.T) {
	// attacker_roll=10, defender_roll=20: end_roll = 22 - 26 = -4.
	// power_diff = 6 - 1 = 5, so end_roll + power_diff == 1: the minimal
	// power-assisted hit.
	h := newHarness(9, 19)
	att, def := newAttacker(), newDefender()
	att.power = 6

	res := h.resolver.ProcessAttack(att, def)
	assert.True(t, res.Hit)
	assert.True(t, res.PowerAssisted)
	assert.Equal(t, -4, res.EndRoll)
	assert.Equal(t, 5, res.Damage)
	assert.Equal(t, 95, def.CurrentHealth())
	assert.Contains(t, h.messenger.sentTo("att"), "You overpower a goblin and hit for 5 damage!")
}

func TestCleanMissLeavesAttackerVulnerable(t *testing.T) {
	// attacker_roll=1, defender_roll=50: end_roll = 13 - 56 = -43.
	// Vulnerability roll 10 < 50 succeeds.
	h := newHarness(0, 49, 10)
	att, def := newAttacker(), newDefender()

	res := h.resolver.ProcessAttack(att, def)
	assert.False(t, res.Hit)
	assert.Equal(t, 0, res.Damage)
	assert.Equal(t, 100, def.CurrentHealth())

	// Finesse 0: reduction 50, duration 5*0.5 = 2.5s.
	assert.Equal(t, 0.5, h.timers.DefenseModifier("att"))
	assert.Equal(t, 2500*time.Millisecond, h.timers.VulnerabilityRemaining("att"))
	assert.Equal(t, 1.0, h.timers.DefenseModifier("def"))

	assert.Contains(t, h.messenger.sentTo("att"), "You miss a goblin and leave yourself open!")
	assert.Contains(t, h.messenger.sentTo("def"), "Kent misses you and leaves an opening!")
}

func TestResistedMiss(t *testing.T) {
	// Vulnerability roll 60 >= 50 fails.
	h := newHarness(0, 49, 60)
	att, def := newAttacker(), newDefender()

	res := h.resolver.ProcessAttack(att, def)
	assert.False(t, res.Hit)
	assert.Equal(t, 1.0, h.timers.DefenseModifier("att"))
	assert.Contains(t, h.messenger.sentTo("att"), "You miss a goblin!")
	assert.Contains(t, h.messenger.sentTo("def"), "Kent misses you!")
}

func TestPowerCheckMiss(t *testing.T) {
	// end_roll = -43, power_diff = 3: still short of 1. A failed power
	// check never rolls for vulnerability.
	h := newHarness(0, 49)
	att, def := newAttacker(), newDefender()
	att.power = 4

	res := h.resolver.ProcessAttack(att, def)
	assert.False(t, res.Hit)
	assert.Equal(t, 1.0, h.timers.DefenseModifier("att"))
	assert.Contains(t, h.messenger.sentTo("att"),
		"You strain against a goblin's guard but fail to break through!")
}

func TestVulnerableDefenderIsEasierToHit(t *testing.T) {
	// Defense base 10 halved to 5 by a 50% reduction. attacker_roll=1,
	// defender_roll=7: end_roll = 13 - 12 = 1, a hit that would have been
	// a miss (13 - 17 = -4) at full defense.
	h := newHarness(0, 6)
	att, def := newAttacker(), newDefender()
	def.agility, def.speed = 5, 5

	h.timers.StartVulnerability("def", 10*time.Second, 50)

	res := h.resolver.ProcessAttack(att, def)
	assert.True(t, res.Hit)
	assert.False(t, res.PowerAssisted)
	assert.Equal(t, 1, res.EndRoll)
	assert.Equal(t, 1, res.Damage)
}

func TestShieldCountsOnlyWhenEquipped(t *testing.T) {
	// attacker_roll=1, defender_roll=3: without the shield end_roll =
	// 13 - 9 = 4; the shield skill of 6 turns it into 13 - 15 = -2, and
	// the failed vulnerability roll makes it a plain miss.
	h := newHarness(0, 2, 60)
	att, def := newAttacker(), newDefender()
	def.shields = 6
	def.shield = true

	res := h.resolver.ProcessAttack(att, def)
	assert.False(t, res.Hit)
	assert.Equal(t, -2, res.EndRoll)
}

func TestDeathPath(t *testing.T) {
	h := newHarness(49, 9)
	att, def := newAttacker(), newDefender()
	def.health = 5

	res := h.resolver.ProcessAttack(att, def)
	require.True(t, res.Hit)
	assert.Equal(t, 0, def.CurrentHealth())

	assert.Equal(t, 10, att.Experience())
	assert.Contains(t, h.messenger.sentTo("att"), "You gain 10 experience points!")
	assert.Contains(t, h.messenger.roomLines("arena"), "a goblin has been slain by Kent!")
	assert.Equal(t, []string{"def"}, h.lifecycle.deaths)
}

func TestConcurrentKillersTriggerDeathOnce(t *testing.T) {
	// A single repeated roll value gives every attacker end_roll 6, so two
	// swings jointly zero a 10-health defender. Only the swing that crosses
	// to zero may run the death path.
	h := newHarness(30)
	att1, att2 := newAttacker(), newAttacker()
	att2.id, att2.name = "att2", "Mara"
	def := newDefender()
	def.health = 10

	var wg sync.WaitGroup
	for _, att := range []*fakeCombatant{att1, att2} {
		att := att
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.resolver.ProcessAttack(att, def)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, def.CurrentHealth())
	assert.Equal(t, []string{"def"}, h.lifecycle.deaths)
	assert.Equal(t, 10, att1.Experience()+att2.Experience())

	slain := 0
	for _, line := range h.messenger.roomLines("arena") {
		if line == "a goblin has been slain by Kent!" || line == "a goblin has been slain by Mara!" {
			slain++
		}
	}
	assert.Equal(t, 1, slain)
}

func TestDamageNeverBelowOne(t *testing.T) {
	// end_roll exactly 1 after attacker_roll=1, defender_roll=6 against a
	// weakened defender: damage = max(1, 1).
	h := newHarness(0, 5)
	att, def := newAttacker(), newDefender()
	def.agility, def.speed = 3, 3

	res := h.resolver.ProcessAttack(att, def)
	require.True(t, res.Hit)
	assert.Equal(t, 1, res.EndRoll)
	assert.Equal(t, 1, res.Damage)
}

func TestHitDeterminationMatchesFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		att := newAttacker()
		def := newDefender()
		att.agility = rapid.IntRange(1, 20).Draw(t, "attAgility")
		att.speed = rapid.IntRange(1, 20).Draw(t, "attSpeed")
		att.weapons = rapid.IntRange(1, 20).Draw(t, "attWeapons")
		att.power = rapid.IntRange(1, 20).Draw(t, "attPower")
		def.agility = rapid.IntRange(1, 20).Draw(t, "defAgility")
		def.speed = rapid.IntRange(1, 20).Draw(t, "defSpeed")
		def.power = rapid.IntRange(1, 20).Draw(t, "defPower")
		def.health = 10000
		def.maxHealth = 10000

		attackerRoll := rapid.IntRange(1, 100).Draw(t, "attackerRoll")
		defenderRoll := rapid.IntRange(1, 100).Draw(t, "defenderRoll")
		vulnRoll := rapid.IntRange(0, 99).Draw(t, "vulnRoll")

		h := newHarness(attackerRoll-1, defenderRoll-1, vulnRoll)
		res := h.resolver.ProcessAttack(att, def)

		attackBase := att.agility + att.speed + att.weapons
		defenseBase := def.agility + def.speed
		endRoll := (attackBase + attackerRoll) - (defenseBase + defenderRoll)
		powerDiff := att.power - def.power
		if powerDiff < 0 {
			powerDiff = 0
		}

		if endRoll != res.EndRoll {
			t.Fatalf("end roll %d, want %d", res.EndRoll, endRoll)
		}
		switch {
		case endRoll > 0:
			if !res.Hit || res.PowerAssisted {
				t.Fatalf("end roll %d must be a clean hit", endRoll)
			}
			want := endRoll
			if want < 1 {
				want = 1
			}
			if res.Damage != want {
				t.Fatalf("clean hit damage %d, want %d", res.Damage, want)
			}
		case endRoll+powerDiff >= 1:
			if !res.Hit || !res.PowerAssisted {
				t.Fatalf("end roll %d with power diff %d must be power-assisted", endRoll, powerDiff)
			}
			want := powerDiff
			if want < 1 {
				want = 1
			}
			if res.Damage != want {
				t.Fatalf("power-assisted damage %d, want %d", res.Damage, want)
			}
		default:
			if res.Hit || res.Damage != 0 {
				t.Fatalf("end roll %d with power diff %d must miss", endRoll, powerDiff)
			}
		}
	})
}
