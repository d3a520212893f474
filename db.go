package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/grichgrich/honey/pkg/core"
)

func initDB() {
	os.MkdirAll(filepath.Dir(Config.DBPath), 0755)

	// WAL mode: battle goroutines and the saver write concurrently
	// with reads from handlers.
	var err error
	db, err = sql.Open("sqlite3", Config.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		panic(err)
	}
	db.Exec("PRAGMA journal_mode=WAL;")

	if _, err := db.Exec(schemaSQL); err != nil {
		panic(err)
	}

	initIdentity()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS system_meta (key TEXT PRIMARY KEY, value TEXT);

CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at INTEGER,
	state_blob BLOB,
	final_hash TEXT
);
`

// initIdentity generates the server UUID and the genesis seed on first
// boot; the seed anchors deterministic world generation.
func initIdentity() {
	var uuid string
	err := db.QueryRow("SELECT value FROM system_meta WHERE key='server_uuid'").Scan(&uuid)

	if err == sql.ErrNoRows {
		InfoLog.Println("FIRST BOOT: Generating Identity...")

		rndBytes := make([]byte, 8)
		rand.Read(rndBytes)
		genesisData := fmt.Sprintf("GENESIS-%d-%x", time.Now().UnixNano(), rndBytes)
		seed := core.Hash([]byte(genesisData))
		uuid = core.Hash([]byte(seed + "-server"))

		tx, _ := db.Begin()
		tx.Exec("INSERT INTO system_meta (key, value) VALUES ('server_uuid', ?)", uuid)
		tx.Exec("INSERT INTO system_meta (key, value) VALUES ('genesis_seed', ?)", seed)
		tx.Commit()

		GenesisSeed = seed
	} else {
		db.QueryRow("SELECT value FROM system_meta WHERE key='genesis_seed'").Scan(&GenesisSeed)
	}
	ServerUUID = uuid
}

// --- Snapshot Persistence ---

// saveState serializes the whole world into an LZ4-compressed blob,
// chained to the previous snapshot hash. Best effort: failures are
// logged and never surface to callers.
func saveState() {
	worldLock.Lock()
	state := persistedState{
		Universe:     universe,
		Characters:   characters,
		Territories:  territories,
		Missions:     missions,
		Leverage:     leverageData,
		Achievements: achievements,
	}
	rawJSON, err := json.Marshal(state)
	worldLock.Unlock()
	if err != nil {
		ErrorLog.Printf("Snapshot marshal failed: %v", err)
		return
	}

	compressed := core.Compress(rawJSON)

	var prevHash string
	if err := db.QueryRow("SELECT final_hash FROM snapshots ORDER BY id DESC LIMIT 1").Scan(&prevHash); err != nil {
		prevHash = GenesisSeed
	}
	finalHash := core.Hash(append(compressed, []byte(prevHash)...))

	if _, err := db.Exec("INSERT INTO snapshots (created_at, state_blob, final_hash) VALUES (?, ?, ?)",
		time.Now().Unix(), compressed, finalHash); err != nil {
		ErrorLog.Printf("Snapshot write failed: %v", err)
		return
	}
	InfoLog.Printf("Snapshot saved. Size: %d bytes. Hash: %s", len(compressed), finalHash)
}

// loadState restores the latest snapshot if one exists. Non-fatal on
// any failure; the server simply starts from a fresh universe.
func loadState() bool {
	var blob []byte
	err := db.QueryRow("SELECT state_blob FROM snapshots ORDER BY id DESC LIMIT 1").Scan(&blob)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		ErrorLog.Printf("Snapshot read failed: %v", err)
		return false
	}

	var state persistedState
	if err := json.Unmarshal(core.Decompress(blob), &state); err != nil {
		ErrorLog.Printf("Snapshot decode failed: %v", err)
		return false
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	if state.Universe != nil {
		universe = state.Universe
	}
	for id, c := range state.Characters {
		characters[id] = c
	}
	if state.Territories != nil {
		territories = state.Territories
	}
	for id, m := range state.Missions {
		missions[id] = m
	}
	for id, l := range state.Leverage {
		leverageData[id] = l
	}
	for id, a := range state.Achievements {
		achievements[id] = a
	}
	InfoLog.Println("State restored from snapshot")
	return true
}

// scheduleSave nudges the saver goroutine; coalesces bursts of
// mutations into one snapshot.
func scheduleSave() {
	select {
	case saveSignal <- struct{}{}:
	default:
	}
}

func runSaver() {
	ticker := time.NewTicker(AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-saveSignal:
			saveState()
		case <-ticker.C:
			saveState()
		}
	}
}
