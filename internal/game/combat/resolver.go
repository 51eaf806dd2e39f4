package combat

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/game/dice"
)

// Result holds the outcome of one attack attempt.
type Result struct {
	// Rejected is true when the attacker was still in roundtime; nothing
	// was mutated.
	Rejected bool
	// Hit is true for both clean and power-assisted hits.
	Hit bool
	// PowerAssisted marks a hit that only landed because of the power gap.
	PowerAssisted bool
	// Damage is the damage dealt to the defender; 0 on miss or rejection.
	Damage int
	// EndRoll is attack_total - defense_total for the attempt.
	EndRoll int
	// Timer is the roundtime handle created by the attempt; nil on
	// rejection.
	Timer *Handle
}

// Resolver turns attack attempts into hits, misses, damage, timers, and
// messages. One attacker's attacks are serialized; attacks by different
// attackers resolve concurrently.
type Resolver struct {
	logger    *zap.Logger
	roller    *dice.Roller
	timers    *Timers
	messenger Messenger
	lifecycle Lifecycle
	clock     Clock
	roundtime time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // attacker ID → serialization lock
}

// NewResolver creates a Resolver.
//
// Precondition: logger, roller, timers, and messenger must be non-nil;
// roundtime must be > 0. lifecycle may be nil (death hand-off skipped).
// clock may be nil (defaults to time.Now).
func NewResolver(logger *zap.Logger, roller *dice.Roller, timers *Timers, messenger Messenger, lifecycle Lifecycle, clock Clock, roundtime time.Duration) *Resolver {
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{
		logger:    logger,
		roller:    roller,
		timers:    timers,
		messenger: messenger,
		lifecycle: lifecycle,
		clock:     clock,
		roundtime: roundtime,
		locks:     make(map[string]*sync.Mutex),
	}
}

// vulnerabilityChance returns the percent chance that a miss leaves the
// attacker exposed, by weapon finesse ranks. The breakpoints are only ever
// exercised at finesse 0 today; the table stands ready for when finesse
// training lands.
func vulnerabilityChance(finesse int) int {
	switch {
	case finesse <= 1:
		return 50
	case finesse <= 3:
		return 40
	default:
		return 30
	}
}

// vulnerabilityDuration returns how long a vulnerable attacker stays
// exposed: half the weapon's speed, shaved by finesse, never under one
// second.
func vulnerabilityDuration(weaponSpeed, finesse int) time.Duration {
	base := float64(weaponSpeed) * 0.5
	secs := base - float64(finesse)*0.1*base
	if secs < 1.0 {
		secs = 1.0
	}
	return time.Duration(secs * float64(time.Second))
}

// vulnerabilityReduction returns the defense reduction percent for a
// vulnerable attacker, clamped to [0, 50].
func vulnerabilityReduction(finesse int) int {
	r := 50 - finesse*10
	if r < 0 {
		return 0
	}
	if r > 50 {
		return 50
	}
	return r
}

// ProcessAttack resolves one attack of attacker against defender.
//
// An attacker still in roundtime is rejected with no state mutated. A
// passed gate always costs the full roundtime window, even when the swing
// misses. Hit determination: end_roll > 0 hits cleanly; otherwise
// end_roll + power_diff >= 1 hits power-assisted; otherwise the swing
// misses and the attacker risks being left vulnerable.
//
// Precondition: attacker and defender must be non-nil and distinct.
func (r *Resolver) ProcessAttack(attacker, defender Combatant) Result {
	lock := r.lockFor(attacker.ID())
	lock.Lock()
	defer lock.Unlock()

	if remaining := r.timers.ActionRemaining(attacker.ID()); remaining > 0 {
		secs := int(math.Ceil(remaining.Seconds()))
		r.messenger.Send(attacker.ID(), fmt.Sprintf("You are still recovering from your last action! (%ds remaining)", secs))
		return Result{Rejected: true}
	}

	// The attempt is committed: the attacker pays the full action window
	// no matter how the swing resolves.
	handle := r.timers.StartAction(attacker.ID(), r.roundtime)

	attackBase := attacker.Agility() + attacker.Speed() + attacker.Weapons()
	defenseBase := defender.Agility() + defender.Speed()
	if defender.HasShieldEquipped() {
		defenseBase += defender.Shields()
	}
	if mod := r.timers.DefenseModifier(defender.ID()); mod < 1.0 {
		defenseBase = int(float64(defenseBase) * mod)
	}

	attackerRoll := r.roller.D100()
	defenderRoll := r.roller.D100()
	attackTotal := attackBase + attackerRoll
	defenseTotal := defenseBase + defenderRoll
	endRoll := attackTotal - defenseTotal

	powerDiff := attacker.Power() - defender.Power()
	if powerDiff < 0 {
		powerDiff = 0
	}

	hit := endRoll > 0
	powerAssisted := !hit && endRoll+powerDiff >= 1

	r.logger.Debug("attack resolved",
		zap.String("attacker", attacker.ID()),
		zap.String("defender", defender.ID()),
		zap.Int("attack_total", attackTotal),
		zap.Int("defense_total", defenseTotal),
		zap.Int("end_roll", endRoll),
		zap.Int("power_diff", powerDiff),
		zap.Bool("hit", hit || powerAssisted),
		zap.Bool("power_assisted", powerAssisted))

	if hit || powerAssisted {
		damage := endRoll
		if powerAssisted {
			damage = powerDiff
		}
		if damage < 1 {
			damage = 1
		}
		_, killed := defender.TakeDamage(damage)
		r.announceHit(attacker, defender, damage, powerAssisted)
		if killed {
			r.handleDeath(attacker, defender)
		}
		return Result{Hit: true, PowerAssisted: powerAssisted, Damage: damage, EndRoll: endRoll, Timer: handle}
	}

	r.resolveMiss(attacker, defender, powerDiff)
	return Result{EndRoll: endRoll, Timer: handle}
}

// resolveMiss sends miss messaging and, on a clean miss (no power assist in
// play), rolls the attacker's vulnerability chance.
func (r *Resolver) resolveMiss(attacker, defender Combatant, powerDiff int) {
	aName, dName := attacker.Name(), defender.Name()
	roomID := attacker.RoomID()

	// A failed power check is its own miss flavor and never exposes the
	// attacker.
	if powerDiff > 0 {
		r.messenger.Send(attacker.ID(), fmt.Sprintf("You strain against %s's guard but fail to break through!", dName))
		r.messenger.Send(defender.ID(), fmt.Sprintf("%s strains against your guard but fails to break through!", aName))
		r.messenger.Broadcast(roomID, fmt.Sprintf("%s strains against %s's guard but fails to break through!", aName, dName), attacker.ID(), defender.ID())
		return
	}

	finesse := attacker.WeaponFinesse()
	if r.roller.Percent(vulnerabilityChance(finesse)) {
		duration := vulnerabilityDuration(attacker.WeaponSpeed(), finesse)
		reduction := vulnerabilityReduction(finesse)
		r.timers.StartVulnerability(attacker.ID(), duration, reduction)
		r.messenger.Send(attacker.ID(), fmt.Sprintf("You miss %s and leave yourself open!", dName))
		r.messenger.Send(defender.ID(), fmt.Sprintf("%s misses you and leaves an opening!", aName))
		r.messenger.Broadcast(roomID, fmt.Sprintf("%s misses %s and leaves an opening!", aName, dName), attacker.ID(), defender.ID())
		return
	}

	r.messenger.Send(attacker.ID(), fmt.Sprintf("You miss %s!", dName))
	r.messenger.Send(defender.ID(), fmt.Sprintf("%s misses you!", aName))
	r.messenger.Broadcast(roomID, fmt.Sprintf("%s misses %s!", aName, dName), attacker.ID(), defender.ID())
}

func (r *Resolver) announceHit(attacker, defender Combatant, damage int, powerAssisted bool) {
	aName, dName := attacker.Name(), defender.Name()
	roomID := attacker.RoomID()
	if powerAssisted {
		r.messenger.Send(attacker.ID(), fmt.Sprintf("You overpower %s and hit for %d damage!", dName, damage))
		r.messenger.Send(defender.ID(), fmt.Sprintf("%s overpowers you and hits for %d damage!", aName, damage))
		r.messenger.Broadcast(roomID, fmt.Sprintf("%s overpowers %s and hits for %d damage!", aName, dName, damage), attacker.ID(), defender.ID())
		return
	}
	r.messenger.Send(attacker.ID(), fmt.Sprintf("You hit %s for %d damage!", dName, damage))
	r.messenger.Send(defender.ID(), fmt.Sprintf("%s hits you for %d damage!", aName, damage))
	r.messenger.Broadcast(roomID, fmt.Sprintf("%s hits %s for %d damage!", aName, dName, damage), attacker.ID(), defender.ID())
}

// handleDeath runs the death path exactly once per kill: experience to the
// killer, a room-wide announcement, then the corpse/respawn hand-off.
func (r *Resolver) handleDeath(attacker, defender Combatant) {
	if xp := defender.Experience(); xp > 0 {
		attacker.GainExperience(xp)
		r.messenger.Send(attacker.ID(), fmt.Sprintf("You gain %d experience points!", xp))
	}
	r.messenger.Broadcast(defender.RoomID(), fmt.Sprintf("%s has been slain by %s!", defender.Name(), attacker.Name()))

	r.logger.Info("combatant slain",
		zap.String("attacker", attacker.ID()),
		zap.String("defender", defender.ID()),
		zap.Bool("player", defender.IsPlayer()))

	if r.lifecycle != nil {
		r.lifecycle.OnDeath(defender, r.clock())
	}
}

func (r *Resolver) lockFor(attackerID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[attackerID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[attackerID] = lock
	}
	return lock
}
