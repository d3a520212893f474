package main

import (
	"database/sql"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// --- Configuration ---

const (
	DefaultDBPath        = "./data/honey.db"
	DefaultAddr          = ":8000"
	DefaultPingInterval  = 45 * time.Second
	DefaultPingTimeout   = 15 * time.Second
	DefaultStateThrottle = 300 * time.Second

	// Settle delay before admitting a fresh connection; absorbs
	// reconnect storms from flapping clients.
	ReconnectSettle = 100 * time.Millisecond

	BattleTickInterval = 500 * time.Millisecond
	AutosaveInterval   = 60 * time.Second
)

var (
	// Infrastructure
	db       *sql.DB
	InfoLog  *log.Logger
	ErrorLog *log.Logger

	// Identity
	ServerUUID  string
	GenesisSeed string

	// Config
	Config struct {
		Addr          string
		DBPath        string
		PingInterval  time.Duration
		PingTimeout   time.Duration
		StateThrottle time.Duration
	}

	// World State (guarded by worldLock)
	worldLock    sync.Mutex
	universe     *Universe
	characters   = make(map[string]*Character)
	territories  []*Territory
	missions     = make(map[string][]*Mission)
	leverageData = make(map[string]*LeverageProfile)
	achievements = make(map[string][]Achievement)
	bots         []string

	// Sessions (guarded by sessionLock). sessionWG counts serve loops
	// and keepalive goroutines so shutdown can join them.
	sessionLock sync.RWMutex
	sessions    = make(map[string]*Session)
	sessionWG   sync.WaitGroup

	// Active battles: the one mandatory exclusivity set, keyed by
	// target planet. Check-and-insert happens under battleLock with
	// no suspension in between; battleWG lets shutdown join every
	// in-flight simulation.
	battleLock    sync.Mutex
	activeBattles = make(map[string]*Battle)
	battleWG      sync.WaitGroup

	// Broadcast throttling (guarded by throttleLock)
	throttleLock   sync.Mutex
	stateThrottles = make(map[string]*rate.Limiter)

	// Rate Limiting
	ipLimiters = make(map[string]*rate.Limiter)
	ipLock     sync.Mutex

	// Persistence trigger (debounced saver goroutine)
	saveSignal = make(chan struct{}, 1)

	// battleRoll supplies combat randomness; swapped for a fixed roll
	// in tests.
	battleRoll = rand.Float64
)

// --- Game Constants ---

var ResourceTypes = []string{"energy", "minerals", "crystals", "gas"}

var TerritoryNames = []string{
	"Alpha Sector", "Beta Quadrant", "Gamma Zone", "Delta Region",
	"Epsilon Field", "Zeta Plains", "Eta Valley", "Theta Mountains",
}

var StarterResources = map[string]int{
	"energy":   1000,
	"minerals": 500,
	"crystals": 250,
	"gas":      100,
}

const (
	DefenderUnitsPerDefense = 40
	SatelliteCost           = 25
	DeployResearchCost      = 20
	ResearchCrystalCost     = 100
	DefendAllCostPerSector  = 50
	TempBuffDuration        = 60 * time.Second
	ResearchStep            = 0.05
	LevelUpExperience       = 1000
)
