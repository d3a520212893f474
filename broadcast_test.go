package main

import (
	"testing"
	"time"
)

func TestPushThrottlePerPlayer(t *testing.T) {
	setupTestEnv(t)
	Config.StateThrottle = time.Hour

	if !allowPush("p1") {
		t.Fatal("first push must pass")
	}
	if allowPush("p1") {
		t.Error("second push inside the window must be suppressed")
	}
	// Budgets are per player, not global.
	if !allowPush("p2") {
		t.Error("another player's first push was throttled")
	}
}

func TestPushThrottleRecovers(t *testing.T) {
	setupTestEnv(t)
	Config.StateThrottle = 10 * time.Millisecond

	allowPush("p1")
	if allowPush("p1") {
		t.Fatal("push inside the window must be suppressed")
	}
	time.Sleep(20 * time.Millisecond)
	if !allowPush("p1") {
		t.Error("push after the window must pass again")
	}
}

// Suppressed pushes are dropped, not queued: after the window reopens
// exactly one push goes through no matter how many were swallowed.
func TestPushThrottleDropsNotQueues(t *testing.T) {
	setupTestEnv(t)
	Config.StateThrottle = time.Hour

	allowPush("p1")
	for i := 0; i < 5; i++ {
		if allowPush("p1") {
			t.Fatal("suppressed push leaked through")
		}
	}
}

func TestPushStateWithoutTransport(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	worldLock.Unlock()

	// Must not panic and must not wedge any lock.
	pushState(s)
	emitLeverageChanged(s)

	worldLock.Lock()
	worldLock.Unlock()
}

func TestPushStateUnknownPlayer(t *testing.T) {
	setupTestEnv(t)
	pushState(deadSession("nobody"))
}
