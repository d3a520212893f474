package main

import (
	"database/sql"
	"io"
	"log"
	"math/rand"
	"testing"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
)

// setupTestEnv resets every global the server mutates so tests can run
// back to back against a fresh world.
func setupTestEnv(t *testing.T) {
	t.Helper()

	// Quiesce everything a previous test may have left running before
	// touching any global: serve loops and keepalive goroutines read
	// Config and the loggers.
	closeAllSessions()
	awaitSessions()
	awaitBattles()

	InfoLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)

	Config.Addr = DefaultAddr
	Config.PingInterval = DefaultPingInterval
	Config.PingTimeout = DefaultPingTimeout
	Config.StateThrottle = DefaultStateThrottle

	GenesisSeed = "test-genesis"
	ServerUUID = "test-server"

	worldLock.Lock()
	universe = generateUniverse()
	territories = generateTerritories()
	characters = make(map[string]*Character)
	missions = make(map[string][]*Mission)
	leverageData = make(map[string]*LeverageProfile)
	achievements = make(map[string][]Achievement)
	bots = nil
	worldLock.Unlock()

	sessionLock.Lock()
	sessions = make(map[string]*Session)
	sessionLock.Unlock()

	battleLock.Lock()
	activeBattles = make(map[string]*Battle)
	battleLock.Unlock()

	throttleLock.Lock()
	stateThrottles = make(map[string]*rate.Limiter)
	throttleLock.Unlock()

	battleRoll = rand.Float64
}

// openTestDB swaps the global handle for an in-memory database. The
// pure-Go driver keeps tests free of cgo.
func openTestDB(t *testing.T) {
	t.Helper()

	handle, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// :memory: is per-connection; pin the pool to one.
	handle.SetMaxOpenConns(1)
	if _, err := handle.Exec(schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	db = handle
	t.Cleanup(func() {
		handle.Close()
		db = nil
	})
}

// deadSession builds a session with no transport: sends degrade to
// Transient no-ops, which is exactly what battles see after their
// attacker disconnects.
func deadSession(playerID string) *Session {
	return &Session{
		ID:       "test-session",
		PlayerID: playerID,
		done:     make(chan struct{}),
	}
}
