package main

import (
	"time"

	"github.com/grichgrich/honey/pkg/game"
)

// --- Battle Coordinator ---

// beginAttack validates an attack command and, if the target is free
// of running battles, registers a Battle and spawns its simulation.
// The check-and-insert into activeBattles happens under one lock so
// two attacks can never share a target.
func beginAttack(s *Session, sourceID, targetID string, amount int) *GameError {
	attackerID := s.PlayerID

	worldLock.Lock()
	source := findPlanet(sourceID)
	target := findPlanet(targetID)
	if source == nil || target == nil {
		worldLock.Unlock()
		return errNotFound("Source or target planet not found")
	}
	defenderID := target.ControlledBy
	defenderCount := target.Defense * DefenderUnitsPerDefense
	sourcePos, targetPos := source.Position, target.Position
	targetName := target.Name
	multiplier := computeLeverage(attackerID).Total
	worldLock.Unlock()

	battleLock.Lock()
	if _, busy := activeBattles[targetID]; busy {
		battleLock.Unlock()
		return errInvalidState("Battle already in progress at this planet.")
	}
	b := &Battle{
		TargetID:      targetID,
		SourceID:      sourceID,
		AttackerID:    attackerID,
		DefenderID:    defenderID,
		AttackerCount: amount,
		DefenderCount: defenderCount,
		State:         BattleStarted,
	}
	activeBattles[targetID] = b
	battleWG.Add(1)
	battleLock.Unlock()

	go runBattle(s, b, multiplier, sourcePos, targetPos, targetName)
	return nil
}

// activeBattleCount is used by the health endpoint and tests.
func activeBattleCount() int {
	battleLock.Lock()
	defer battleLock.Unlock()
	return len(activeBattles)
}

// awaitBattles blocks until every running simulation has resolved;
// called during orderly shutdown. Individual disconnects never cancel
// a battle; it runs to completion and its sends fail silently.
func awaitBattles() {
	battleWG.Wait()
}

// runBattle drives one battle from start to resolution: an opening
// event, N interpolated ticks, the world mutation and a final report.
// Event delivery is best effort throughout; the target is released
// from the active set on every path.
func runBattle(s *Session, b *Battle, multiplier float64, sourcePos, targetPos Vec3, targetName string) {
	defer func() {
		battleLock.Lock()
		delete(activeBattles, b.TargetID)
		battleLock.Unlock()
		battleWG.Done()
	}()

	s.send("battle_started", map[string]interface{}{
		"from_id":       b.SourceID,
		"to_id":         b.TargetID,
		"from_position": sourcePos,
		"to_position":   targetPos,
		"attackers":     map[string]interface{}{"owner": b.AttackerID, "count": b.AttackerCount},
		"defenders":     map[string]interface{}{"owner": b.DefenderID, "count": b.DefenderCount},
		"message":       "Attack on " + targetName + " has begun!",
	})

	outcome := game.Resolve(b.AttackerCount, b.DefenderCount, multiplier, battleRoll)

	b.State = BattleTicking
	for i := 1; i <= outcome.Ticks; i++ {
		time.Sleep(BattleTickInterval)
		b.Tick = i

		s.send("battle_update", map[string]interface{}{
			"planet_id": b.TargetID,
			"attackers": map[string]interface{}{
				"owner": b.AttackerID,
				"count": game.Interpolate(b.AttackerCount, outcome.AttackerSurvivors, i, outcome.Ticks),
			},
			"defenders": map[string]interface{}{
				"owner": b.DefenderID,
				"count": game.Interpolate(b.DefenderCount, outcome.DefenderSurvivors, i, outcome.Ticks),
			},
		})
	}

	finalOwner, finalDefense := applyBattleResult(b, outcome)

	b.State = BattleResolved
	b.Outcome = &BattleOutcome{
		Success:           outcome.Success,
		AttackerSurvivors: outcome.AttackerSurvivors,
		DefenderSurvivors: outcome.DefenderSurvivors,
	}

	InfoLog.Printf("Battle complete at %s - success: %v, attacker: %s, survivors: %d/%d",
		b.TargetID, outcome.Success, b.AttackerID, outcome.AttackerSurvivors, outcome.DefenderSurvivors)

	var newOwner interface{}
	if outcome.Success {
		newOwner = finalOwner
	}
	s.send("attack_result", map[string]interface{}{
		"planet_id":            b.TargetID,
		"success":              outcome.Success,
		"new_owner":            newOwner,
		"current_owner":        finalOwner,
		"defense":              finalDefense,
		"position":             targetPos,
		"attack_power":         int(multiplier * 100),
		"defense_power":        b.DefenderCount / DefenderUnitsPerDefense,
		"leverage_used":        multiplier,
		"attacking_units":      b.AttackerCount,
		"defending_units":      b.DefenderCount,
		"source_planets":       []string{b.SourceID},
		"attacker_id":          b.AttackerID,
		"defender_id":          b.DefenderID,
		"battle_duration":      outcome.Ticks,
		"final_attacker_count": outcome.AttackerSurvivors,
		"final_defender_count": outcome.DefenderSurvivors,
	})

	pushState(s)
	scheduleSave()
}

// applyBattleResult mutates the world once the simulation settles: a
// win hands the planet to the attacker with a garrison rebuilt from
// the survivors, a loss erodes the standing defense by one.
func applyBattleResult(b *Battle, outcome game.Outcome) (owner string, defense int) {
	worldLock.Lock()
	defer worldLock.Unlock()

	target := findPlanet(b.TargetID)
	if target == nil {
		// Planet vanished mid-battle; nothing to mutate.
		ErrorLog.Printf("Battle target %s no longer exists", b.TargetID)
		return "", 0
	}

	if outcome.Success {
		target.ControlledBy = b.AttackerID
		target.Defense = game.CapturedDefense(outcome.AttackerSurvivors)
		if attacker, ok := characters[b.AttackerID]; ok {
			attacker.Defeated += b.DefenderCount - outcome.DefenderSurvivors
		}
		checkAchievements(b.AttackerID)
	} else {
		target.Defense = game.HeldDefense(target.Defense)
	}
	mirrorPlanet(target)

	return target.ControlledBy, target.Defense
}
