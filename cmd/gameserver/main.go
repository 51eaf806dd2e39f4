// Package main provides the fafo game server binary: it wires the combat
// core together and runs a demo arena bout until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/KentRRhodes/fafo/internal/config"
	"github.com/KentRRhodes/fafo/internal/game/combat"
	"github.com/KentRRhodes/fafo/internal/game/dice"
	"github.com/KentRRhodes/fafo/internal/game/entity"
	"github.com/KentRRhodes/fafo/internal/game/npc"
	"github.com/KentRRhodes/fafo/internal/game/session"
	"github.com/KentRRhodes/fafo/internal/game/stats"
	"github.com/KentRRhodes/fafo/internal/gameserver"
	"github.com/KentRRhodes/fafo/internal/observability"
	"github.com/KentRRhodes/fafo/internal/scripting"
	"github.com/KentRRhodes/fafo/internal/server"
)

const arenaRoom = "arena"

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)
	statsEngine := stats.NewEngine(logger, nil)
	sessMgr := session.NewManager(logger)

	templates, err := npc.LoadTemplates(cfg.Content.NPCDir)
	if err != nil {
		logger.Fatal("loading npc templates", zap.Error(err))
	}
	logger.Info("loaded npc templates", zap.Int("count", len(templates)))

	conditions := scripting.NewConditionSource(logger)
	npcMgr, err := npc.NewManager(logger, templates, statsEngine, conditions, cfg.Combat.CorpseDecay)
	if err != nil {
		logger.Fatal("building npc manager", zap.Error(err))
	}
	npcMgr.SetNotifier(func(roomID, text string) {
		sessMgr.Broadcast(roomID, text)
	})

	timers := combat.NewTimers(logger, sessMgr, nil, cfg.Combat.TickInterval)
	deaths := gameserver.NewDeathHandler(logger, npcMgr, nil)
	resolver := combat.NewResolver(logger, roller, timers, sessMgr, deaths, nil, cfg.Combat.Roundtime)

	ticks := gameserver.NewTickManager(cfg.Combat.TickInterval)
	ticks.Register("timers", timers.Tick)
	ticks.Register("effects", func(time.Time) { statsEngine.CleanExpired() })
	ticks.Register("corpses", npcMgr.Tick)

	life := server.NewLifecycle(logger)

	tickCtx, tickCancel := context.WithCancel(ctx)
	life.Add("ticker", &server.FuncService{
		StartFn: func() error {
			ticks.Run(tickCtx)
			return nil
		},
		StopFn: func() {
			tickCancel()
			timers.StopAll()
			sessMgr.Shutdown()
		},
	})

	demoCtx, demoCancel := context.WithCancel(ctx)
	life.Add("arena-demo", &server.FuncService{
		StartFn: func() error {
			return runArena(demoCtx, logger, statsEngine, sessMgr, npcMgr, resolver)
		},
		StopFn: demoCancel,
	})

	if err := life.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}

// runArena stages a bout between a demo player and a spawned NPC, echoing
// the player's output lines to stdout.
func runArena(ctx context.Context, logger *zap.Logger, statsEngine *stats.Engine, sessMgr *session.Manager, npcMgr *npc.Manager, resolver *combat.Resolver) error {
	attrs := entity.DefaultAttributes()
	attrs.Power, attrs.Agility, attrs.Speed = 5, 5, 5
	skills := entity.DefaultSkills()
	skills.Weapons = 3

	p := entity.NewPlayer("Marshal", attrs, skills, 50, statsEngine)
	p.SetRoomID(arenaRoom)
	p.SetRightHand(&entity.Item{Name: "a worn longsword", Speed: 5})
	p.SetLeftHand(&entity.Item{Name: "a battered kite shield", ShieldBonus: 1})
	sess, err := sessMgr.AddPlayer(p)
	if err != nil {
		return fmt.Errorf("adding demo player: %w", err)
	}
	go func() {
		for line := range sess.Outbox.Lines() {
			fmt.Println(line)
		}
	}()

	templateIDs := npcMgr.TemplateIDs()
	if len(templateIDs) == 0 {
		logger.Warn("no npc templates available, arena idle")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		target := firstLiving(npcMgr, arenaRoom)
		if target == nil {
			spawned, err := npcMgr.Spawn(templateIDs[0], arenaRoom)
			if err != nil {
				return fmt.Errorf("spawning arena npc: %w", err)
			}
			sessMgr.Broadcast(arenaRoom, fmt.Sprintf("%s prowls into the arena.", spawned.Name()))
			continue
		}

		resolver.ProcessAttack(p, target)
		if !target.IsCorpse() && p.CurrentHealth() > 0 {
			resolver.ProcessAttack(target, p)
		}
		if p.CurrentHealth() == 0 {
			logger.Info("demo player slain, arena over")
			return nil
		}
	}
}

// firstLiving returns any non-corpse NPC in roomID, or nil.
func firstLiving(npcMgr *npc.Manager, roomID string) *entity.NPC {
	for _, n := range npcMgr.InstancesInRoom(roomID) {
		if !n.IsCorpse() {
			return n
		}
	}
	return nil
}
