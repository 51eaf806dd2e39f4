package session

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/game/entity"
)

// PlayerSession tracks a connected player's state.
type PlayerSession struct {
	// Player is the combatant this session controls.
	Player *entity.Player
	// Outbox delivers game output lines to the player.
	Outbox *Outbox
}

// Manager tracks all active player sessions and room occupancy, and routes
// game output to players.
// All methods are safe for concurrent use.
type Manager struct {
	logger *zap.Logger

	mu       sync.RWMutex
	players  map[string]*PlayerSession  // player ID → session
	roomSets map[string]map[string]bool // roomID → set of player IDs
}

// NewManager creates an empty session Manager.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger,
		players:  make(map[string]*PlayerSession),
		roomSets: make(map[string]map[string]bool),
	}
}

// AddPlayer registers a new player session in the player's current room.
//
// Precondition: p must be non-nil and placed in a room via SetRoomID.
// Postcondition: Returns the created PlayerSession, or an error if the
// player ID is already registered.
func (m *Manager) AddPlayer(p *entity.Player) (*PlayerSession, error) {
	roomID := p.RoomID()
	if roomID == "" {
		return nil, fmt.Errorf("player %q has no room", p.Name())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[p.ID()]; exists {
		return nil, fmt.Errorf("player %q already connected", p.ID())
	}

	sess := &PlayerSession{
		Player: p,
		Outbox: NewOutbox(p.ID(), 64),
	}
	m.players[p.ID()] = sess
	if m.roomSets[roomID] == nil {
		m.roomSets[roomID] = make(map[string]bool)
	}
	m.roomSets[roomID][p.ID()] = true

	return sess, nil
}

// RemovePlayer removes a player session and cleans up room occupancy.
//
// Postcondition: The player is removed from all tracking and the outbox is
// closed. Returns an error if not found.
func (m *Manager) RemovePlayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[id]
	if !exists {
		return fmt.Errorf("player %q not found", id)
	}

	roomID := sess.Player.RoomID()
	if rs, ok := m.roomSets[roomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, roomID)
		}
	}

	_ = sess.Outbox.Close()
	delete(m.players, id)
	return nil
}

// Shutdown removes every session and closes its outbox. The manager is
// empty but reusable afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.players {
		_ = sess.Outbox.Close()
		delete(m.players, id)
	}
	m.roomSets = make(map[string]map[string]bool)
	m.logger.Info("all sessions closed")
}

// MovePlayer moves a player from their current room to a new room.
//
// Precondition: id and newRoomID must be non-empty.
// Postcondition: Returns the old room ID, or an error if the player is not
// found.
func (m *Manager) MovePlayer(id, newRoomID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, exists := m.players[id]
	if !exists {
		return "", fmt.Errorf("player %q not found", id)
	}

	oldRoomID := sess.Player.RoomID()
	if rs, ok := m.roomSets[oldRoomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, oldRoomID)
		}
	}

	sess.Player.SetRoomID(newRoomID)
	if m.roomSets[newRoomID] == nil {
		m.roomSets[newRoomID] = make(map[string]bool)
	}
	m.roomSets[newRoomID][id] = true

	return oldRoomID, nil
}

// GetPlayer returns the session for the given player ID.
//
// Postcondition: Returns (session, true) if found, or (nil, false) otherwise.
func (m *Manager) GetPlayer(id string) (*PlayerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.players[id]
	return sess, ok
}

// PlayersInRoom returns the players occupying the given room.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) PlayersInRoom(roomID string) []*entity.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.roomSets[roomID]
	if !ok {
		return []*entity.Player{}
	}

	out := make([]*entity.Player, 0, len(ids))
	for id := range ids {
		if sess, ok := m.players[id]; ok {
			out = append(out, sess.Player)
		}
	}
	return out
}

// PlayerCount returns the total number of connected players.
func (m *Manager) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// Send delivers a line to one player. Lines to unknown players are dropped;
// NPCs have no session, so combat can address any combatant ID safely.
func (m *Manager) Send(id, line string) {
	m.mu.RLock()
	sess, ok := m.players[id]
	m.mu.RUnlock()
	if !ok {
		return
	}
	if err := sess.Outbox.Push(line); err != nil {
		m.logger.Warn("dropping line for player",
			zap.String("player", id),
			zap.Error(err))
	}
}

// Broadcast delivers a line to every player in roomID except those listed
// in exclude.
func (m *Manager) Broadcast(roomID, line string, exclude ...string) {
	m.mu.RLock()
	var targets []*PlayerSession
	for id := range m.roomSets[roomID] {
		skip := false
		for _, ex := range exclude {
			if id == ex {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if sess, ok := m.players[id]; ok {
			targets = append(targets, sess)
		}
	}
	m.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.Outbox.Push(line); err != nil {
			m.logger.Warn("dropping broadcast line",
				zap.String("player", sess.Player.ID()),
				zap.String("room", roomID),
				zap.Error(err))
		}
	}
}
