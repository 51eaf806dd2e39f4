package npc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/game/entity"
	"github.com/KentRRhodes/fafo/internal/game/stats"
)

// decayEntry represents one corpse awaiting removal.
type decayEntry struct {
	instanceID string
	removeAt   time.Time
}

// ConditionCompiler turns a named boolean expression into an effect
// condition. The scripting package provides the production implementation.
type ConditionCompiler interface {
	Compile(name, expr string) (stats.Condition, error)
}

// Manager tracks all live NPC instances by ID and by room, and removes
// corpses once their decay delay elapses.
// All methods are safe for concurrent use.
type Manager struct {
	logger       *zap.Logger
	effects      *stats.Engine
	defaultDecay time.Duration

	mu        sync.RWMutex
	templates map[string]*Template
	prototype map[string][]stats.Effect
	instances map[string]*entity.NPC
	roomSets  map[string]map[string]bool
	pending   []decayEntry
	notify    func(roomID, text string)
}

// NewManager creates a Manager over the given templates. Template effect
// conditions are compiled once here via compiler.
//
// Precondition: logger must be non-nil; defaultDecay must be > 0.
// effects may be nil, in which case spawned NPCs carry no effect engine.
// compiler may be nil only when no template declares a conditioned effect.
// Postcondition: Returns an error if any template effect condition fails to
// compile, or if a conditioned effect is declared without a compiler.
func NewManager(logger *zap.Logger, templates []*Template, effects *stats.Engine, compiler ConditionCompiler, defaultDecay time.Duration) (*Manager, error) {
	byID := make(map[string]*Template, len(templates))
	prototype := make(map[string][]stats.Effect, len(templates))
	for _, tmpl := range templates {
		byID[tmpl.ID] = tmpl

		for _, spec := range tmpl.Effects {
			eff := stats.Effect{
				Stat:   spec.Stat,
				Source: fmt.Sprintf("template:%s:%s", tmpl.ID, spec.Name),
			}
			if spec.Percent != 0 {
				eff.Value = spec.Percent
				eff.Percentage = true
			} else {
				eff.Value = spec.Flat
			}
			if spec.Condition != "" {
				if compiler == nil {
					return nil, fmt.Errorf("npc template %q: effect %q has a condition but no compiler is configured", tmpl.ID, spec.Name)
				}
				cond, err := compiler.Compile(spec.Name, spec.Condition)
				if err != nil {
					return nil, fmt.Errorf("npc template %q: effect %q: %w", tmpl.ID, spec.Name, err)
				}
				eff.Condition = cond
			}
			prototype[tmpl.ID] = append(prototype[tmpl.ID], eff)
		}
	}
	return &Manager{
		logger:       logger,
		effects:      effects,
		defaultDecay: defaultDecay,
		templates:    byID,
		prototype:    prototype,
		instances:    make(map[string]*entity.NPC),
		roomSets:     make(map[string]map[string]bool),
	}, nil
}

// SetNotifier installs the callback used to announce corpse decay to a room.
// Must be called before Tick; a nil notifier silences the announcements.
func (m *Manager) SetNotifier(notify func(roomID, text string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = notify
}

// TemplateIDs returns the IDs of every loaded template, sorted.
func (m *Manager) TemplateIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.templates))
	for id := range m.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Template returns the template with the given ID.
func (m *Manager) Template(id string) (*Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tmpl, ok := m.templates[id]
	return tmpl, ok
}

// Spawn creates a live NPC from templateID and places it in roomID.
//
// Precondition: templateID must name a loaded template; roomID must be
// non-empty.
// Postcondition: Returns a new NPC with a unique ID registered in roomID.
func (m *Manager) Spawn(templateID, roomID string) (*entity.NPC, error) {
	if roomID == "" {
		return nil, fmt.Errorf("npc.Manager.Spawn: roomID must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tmpl, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("npc.Manager.Spawn: unknown template %q", templateID)
	}

	n := entity.NewNPC(tmpl.ID, tmpl.Name, tmpl.BuildAttributes(), tmpl.BuildSkills(), tmpl.MaxHealth, tmpl.Experience, m.effects)
	n.SetRoomID(roomID)
	if tmpl.Weapon != nil {
		n.SetRightHand(&entity.Item{Name: tmpl.Weapon.Name, Speed: tmpl.Weapon.Speed, ShieldBonus: tmpl.Weapon.ShieldBonus})
	}
	if tmpl.Shield != nil {
		n.SetLeftHand(&entity.Item{Name: tmpl.Shield.Name, Speed: tmpl.Shield.Speed, ShieldBonus: tmpl.Shield.ShieldBonus})
	}
	if m.effects != nil {
		for _, eff := range m.prototype[templateID] {
			m.effects.AddEffect(n, eff)
		}
	}

	m.instances[n.ID()] = n
	if m.roomSets[roomID] == nil {
		m.roomSets[roomID] = make(map[string]bool)
	}
	m.roomSets[roomID][n.ID()] = true

	m.logger.Debug("spawned npc",
		zap.String("template", templateID),
		zap.String("instance", n.ID()),
		zap.String("room", roomID))
	return n, nil
}

// Remove deletes an instance by ID and drops any stat effects attached to it.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

func (m *Manager) removeLocked(id string) error {
	n, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}

	roomID := n.RoomID()
	if rs, ok := m.roomSets[roomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, roomID)
		}
	}
	delete(m.instances, id)
	if m.effects != nil {
		m.effects.Forget(id)
	}
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (n, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*entity.NPC, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.instances[id]
	return n, ok
}

// InstancesInRoom returns a snapshot of all instances in roomID, corpses
// included.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InstancesInRoom(roomID string) []*entity.NPC {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.roomSets[roomID]
	if !ok {
		return []*entity.NPC{}
	}

	out := make([]*entity.NPC, 0, len(ids))
	for id := range ids {
		if n, ok := m.instances[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// FindInRoom returns the first living instance in roomID whose name has
// target as a case-insensitive prefix or word. Returns nil if no match is
// found; corpses never match.
//
// Precondition: roomID and target must be non-empty for meaningful results.
func (m *Manager) FindInRoom(roomID, target string) *entity.NPC {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.roomSets[roomID]
	if !ok {
		return nil
	}

	lower := strings.ToLower(target)
	for id := range ids {
		n, ok := m.instances[id]
		if !ok || n.IsCorpse() {
			continue
		}
		name := strings.ToLower(n.Name())
		if strings.HasPrefix(name, lower) {
			return n
		}
		for _, word := range strings.Fields(name) {
			if strings.HasPrefix(word, lower) {
				return n
			}
		}
	}
	return nil
}

// ConvertToCorpse turns a dead NPC into a corpse and schedules its removal
// at now plus the template's decay delay (or the server default). Repeated
// calls for the same instance are ignored.
//
// Precondition: n must have been spawned by this manager.
func (m *Manager) ConvertToCorpse(n *entity.NPC, now time.Time) {
	if !n.BecomeCorpse() {
		return
	}
	if m.effects != nil {
		m.effects.Forget(n.ID())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delay := m.defaultDecay
	if tmpl, ok := m.templates[n.TemplateID()]; ok && tmpl.CorpseDecay != "" {
		if d, err := time.ParseDuration(tmpl.CorpseDecay); err == nil {
			delay = d
		}
	}
	m.pending = append(m.pending, decayEntry{
		instanceID: n.ID(),
		removeAt:   now.Add(delay),
	})
	m.logger.Debug("scheduled corpse decay",
		zap.String("instance", n.ID()),
		zap.Duration("delay", delay))
}

// Tick removes every corpse whose decay time has arrived and announces the
// removal to its room.
//
// Postcondition: pending entries with removeAt <= now are consumed.
func (m *Manager) Tick(now time.Time) {
	m.mu.Lock()

	var ready, future []decayEntry
	for _, e := range m.pending {
		if !e.removeAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	m.pending = future

	notify := m.notify
	type removal struct {
		roomID string
		name   string
	}
	var removed []removal
	for _, e := range ready {
		n, ok := m.instances[e.instanceID]
		if !ok {
			continue
		}
		removed = append(removed, removal{roomID: n.RoomID(), name: n.Name()})
		_ = m.removeLocked(e.instanceID)
	}
	m.mu.Unlock()

	if notify == nil {
		return
	}
	for _, r := range removed {
		notify(r.roomID, fmt.Sprintf("%s decays into nothing.", capitalize(r.name)))
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
