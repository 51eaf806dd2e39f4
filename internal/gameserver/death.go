package gameserver

import (
	"time"

	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/game/combat"
	"github.com/KentRRhodes/fafo/internal/game/entity"
	"github.com/KentRRhodes/fafo/internal/game/npc"
)

// PlayerRespawner receives dead players. The respawn flow itself lives
// outside the combat core.
type PlayerRespawner interface {
	Respawn(p *entity.Player)
}

// DeathHandler routes combat deaths to the world: NPCs become decaying
// corpses, players go to the respawn path.
type DeathHandler struct {
	logger    *zap.Logger
	npcs      *npc.Manager
	respawner PlayerRespawner
}

// NewDeathHandler creates a DeathHandler.
//
// Precondition: logger and npcs must be non-nil. respawner may be nil,
// in which case player deaths are only logged.
func NewDeathHandler(logger *zap.Logger, npcs *npc.Manager, respawner PlayerRespawner) *DeathHandler {
	return &DeathHandler{logger: logger, npcs: npcs, respawner: respawner}
}

// OnDeath implements combat.Lifecycle.
func (h *DeathHandler) OnDeath(defender combat.Combatant, now time.Time) {
	switch d := defender.(type) {
	case *entity.NPC:
		h.npcs.ConvertToCorpse(d, now)
	case *entity.Player:
		h.logger.Info("player died",
			zap.String("player", d.ID()),
			zap.String("name", d.Name()))
		if h.respawner != nil {
			h.respawner.Respawn(d)
		}
	default:
		h.logger.Warn("death for unknown combatant type",
			zap.String("id", defender.ID()))
	}
}
