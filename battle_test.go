package main

import (
	"testing"

	"github.com/grichgrich/honey/pkg/game"
)

// pickTargets returns a source planet owned by the player and a target
// owned by someone else. Caller holds worldLock.
func pickTargets(t *testing.T, playerID string) (source, target *Planet) {
	t.Helper()
	for _, p := range allPlanets() {
		switch {
		case source == nil && p.ControlledBy == playerID:
			source = p
		case target == nil && p.ControlledBy != playerID:
			target = p
		}
	}
	if source == nil || target == nil {
		t.Fatal("world has no usable source/target pair")
	}
	return source, target
}

func TestBattleExclusivityPerTarget(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	source, target := pickTargets(t, "p1")
	worldLock.Unlock()

	battleLock.Lock()
	activeBattles[target.ID] = &Battle{TargetID: target.ID}
	battleLock.Unlock()

	err := beginAttack(s, source.ID, target.ID, 50)
	if err == nil {
		t.Fatal("second attack on a busy target must be rejected")
	}
	if err.Kind != ErrInvalidState {
		t.Errorf("Kind = %v, want ErrInvalidState", err.Kind)
	}

	battleLock.Lock()
	delete(activeBattles, target.ID)
	battleLock.Unlock()
}

func TestBattleUnknownPlanets(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	err := beginAttack(s, "planet-nope", "planet-nada", 50)
	if err == nil || err.Kind != ErrNotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
	if activeBattleCount() != 0 {
		t.Error("failed validation must not register a battle")
	}
}

// Full path: attack spawns a simulation, runs its ticks with a dead
// transport, mutates the world and releases the target.
func TestBattleWinCapturesPlanet(t *testing.T) {
	setupTestEnv(t)
	battleRoll = func() float64 { return 0.0 }
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	source, target := pickTargets(t, "p1")
	target.ControlledBy = "bot_1"
	target.Defense = 1 // 40 defenders; 200 attackers is ratio 5, two ticks
	worldLock.Unlock()

	if err := beginAttack(s, source.ID, target.ID, 200); err != nil {
		t.Fatalf("beginAttack: %v", err)
	}
	awaitBattles()

	worldLock.Lock()
	defer worldLock.Unlock()
	if target.ControlledBy != "p1" {
		t.Errorf("target owner = %q, want p1", target.ControlledBy)
	}
	// 140 survivors rebuild a garrison of 7.
	if target.Defense != 7 {
		t.Errorf("captured defense = %d, want 7", target.Defense)
	}
	if got := characters["p1"].Defeated; got != 40 {
		t.Errorf("Defeated counter = %d, want 40", got)
	}
	if mirror := findTerritory(target.ID); mirror == nil || mirror.ControlledBy != "p1" {
		t.Error("territory mirror not updated after capture")
	}
	if activeBattleCount() != 0 {
		t.Error("target not released after resolution")
	}
}

func TestBattleLossErodesDefense(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	provisionPlayer("p1")
	_, target := pickTargets(t, "p1")
	target.ControlledBy = "bot_1"
	target.Defense = 3
	worldLock.Unlock()

	b := &Battle{
		TargetID:      target.ID,
		AttackerID:    "p1",
		DefenderID:    "bot_1",
		AttackerCount: 10,
		DefenderCount: 120,
	}
	owner, defense := applyBattleResult(b, game.Outcome{Success: false, DefenderSurvivors: 96})

	if owner != "bot_1" {
		t.Errorf("owner = %q, want unchanged bot_1", owner)
	}
	if defense != 2 {
		t.Errorf("defense = %d, want eroded 2", defense)
	}
}

func TestBattleLossDefenseFloor(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	provisionPlayer("p1")
	_, target := pickTargets(t, "p1")
	target.ControlledBy = "bot_1"
	target.Defense = 1
	worldLock.Unlock()

	b := &Battle{TargetID: target.ID, AttackerID: "p1", DefenderID: "bot_1", AttackerCount: 5, DefenderCount: 40}
	_, defense := applyBattleResult(b, game.Outcome{Success: false, DefenderSurvivors: 32})

	if defense != 1 {
		t.Errorf("defense = %d, repelling an attack must never drop below 1", defense)
	}
}
