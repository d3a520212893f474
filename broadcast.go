package main

import (
	"encoding/json"

	"golang.org/x/time/rate"
)

// --- State Broadcaster ---

// allowPush consumes the per-player broadcast budget: one push per
// throttle window. Suppressed pushes are dropped, never queued; the
// next allowed push carries whatever the world looks like then.
func allowPush(playerID string) bool {
	throttleLock.Lock()
	defer throttleLock.Unlock()
	limiter, ok := stateThrottles[playerID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(Config.StateThrottle), 1)
		stateThrottles[playerID] = limiter
	}
	return limiter.Allow()
}

// pushState assembles and sends a game_state_update snapshot for the
// session's player, rate-limited per player.
func pushState(s *Session) {
	playerID := s.PlayerID
	if !allowPush(playerID) {
		InfoLog.Printf("Throttling game state for %s", playerID)
		return
	}

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		ErrorLog.Printf("No character for %s, skipping state push", playerID)
		return
	}
	// Marshal while still holding the lock: the payload aliases live
	// world state that other handlers mutate.
	raw, err := json.Marshal(map[string]interface{}{
		"character":          character,
		"territories":        playerTerritories(playerID),
		"missions":           missions[playerID],
		"leverageMultiplier": computeLeverage(playerID),
	})
	worldLock.Unlock()
	if err != nil {
		ErrorLog.Printf("State marshal for %s failed: %v", playerID, err)
		return
	}

	if err := s.send("game_state_update", json.RawMessage(raw)); err != nil {
		ErrorLog.Printf("State push to %s failed: %v", playerID, err)
	}
}

// emitLeverageChanged notifies a session that an action moved its
// multiplier. Best effort.
func emitLeverageChanged(s *Session) {
	worldLock.Lock()
	raw, err := json.Marshal(computeLeverage(s.PlayerID))
	worldLock.Unlock()
	if err != nil {
		return
	}
	s.send("leverage_changed", json.RawMessage(raw))
}
