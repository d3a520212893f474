package main

import "encoding/json"

// --- Domain Models ---

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Resource struct {
	Type        string `json:"type"`
	Amount      int    `json:"amount"`
	MaxCapacity int    `json:"max_capacity,omitempty"`
}

type Character struct {
	Name       string         `json:"name"`
	Faction    string         `json:"faction"`
	Level      int            `json:"level"`
	Experience int            `json:"experience"`
	Resources  map[string]int `json:"resources"`

	// Lifetime counters feeding the achievement tiers.
	Harvested         int `json:"harvested"`
	Defeated          int `json:"defeated"`
	MissionsCompleted int `json:"missions_completed"`
}

type Planet struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ControlledBy string     `json:"controlledBy,omitempty"`
	Defense      int        `json:"defense"`
	Population   int        `json:"population"`
	Resources    []Resource `json:"resources"`
	SystemID     string     `json:"systemId"`
	Position     Vec3       `json:"position"`
	OrbitRadius  float64    `json:"orbit_radius"`
	OrbitAngle   float64    `json:"orbit_angle"`
}

type Sun struct {
	Color     string  `json:"color"`
	Intensity float64 `json:"intensity"`
}

type System struct {
	ID       string    `json:"id"`
	Position Vec3      `json:"position"`
	Sun      Sun       `json:"sun"`
	Planets  []*Planet `json:"planets"`
}

type Galaxy struct {
	ID      string    `json:"id"`
	Systems []*System `json:"systems"`
}

type Universe struct {
	Galaxies []*Galaxy `json:"galaxies"`
}

// Territory is the flat, client-facing mirror of an ownable location.
// Planets are mirrored in here so the map view and the universe view
// agree on ownership and defense.
type Territory struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	ControlledBy string     `json:"controlledBy,omitempty"`
	Defense      int        `json:"defense"`
	Resources    []Resource `json:"resources"`
	Position     Vec3       `json:"position"`
}

type Reward struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

type BonusConditions struct {
	TerritoryControl  int `json:"territory_control"`
	ResourceThreshold int `json:"resource_threshold"`
}

type Mission struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Type            string          `json:"type"`
	Territory       string          `json:"territory"`
	Reward          Reward          `json:"reward"`
	Progress        int             `json:"progress"`
	ProgressRate    float64         `json:"progress_rate"`
	TimeStarted     int64           `json:"time_started,omitempty"`
	BonusConditions BonusConditions `json:"bonus_conditions"`
}

type Achievement struct {
	Kind       string `json:"kind"`
	Level      int    `json:"level"`
	Threshold  int    `json:"threshold"`
	UnlockedAt int64  `json:"unlocked_at"`
}

// --- Leverage ---

type TempBuff struct {
	Level     float64 `json:"level"`
	ExpiresAt int64   `json:"expires_at"`
}

// LeverageProfile holds the per-player progress signals the scoring
// engine aggregates. Research is persistent; TempBuffs expire and are
// pruned whenever the multiplier is computed.
type LeverageProfile struct {
	TerritoryBonus   float64              `json:"territory_bonus"`
	ResourceBonus    float64              `json:"resource_bonus"`
	MissionBonus     float64              `json:"mission_bonus"`
	LevelBonus       float64              `json:"level_bonus"`
	AchievementBonus float64              `json:"achievement_bonus"`
	Research         map[string]float64   `json:"research"`
	TempBuffs        map[string]*TempBuff `json:"temp_buffs"`
}

type BonusDetail struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Max         float64 `json:"max"`
	Progress    float64 `json:"progress"`
}

// LeverageResult is the single shape every scoring call returns,
// including the unknown-player path (neutral value, empty bonuses).
type LeverageResult struct {
	Total             float64                `json:"total"`
	BaseRate          float64                `json:"base_rate"`
	Bonuses           map[string]BonusDetail `json:"bonuses"`
	Efficiency        float64                `json:"efficiency"`
	PotentialIncrease float64                `json:"potential_increase"`
	TempBuffs         map[string]*TempBuff   `json:"temp_buffs_detail,omitempty"`
}

// --- Battles ---

type BattleState int

const (
	BattleStarted BattleState = iota
	BattleTicking
	BattleResolved
)

type BattleOutcome struct {
	Success           bool `json:"success"`
	AttackerSurvivors int  `json:"attacker_survivors"`
	DefenderSurvivors int  `json:"defender_survivors"`
}

type Battle struct {
	TargetID      string         `json:"target_id"`
	SourceID      string         `json:"source_id"`
	AttackerID    string         `json:"attacker_id"`
	DefenderID    string         `json:"defender_id"`
	AttackerCount int            `json:"attacker_count"`
	DefenderCount int            `json:"defender_count"`
	Tick          int            `json:"tick"`
	State         BattleState    `json:"state"`
	Outcome       *BattleOutcome `json:"outcome,omitempty"`
}

// --- Wire Protocol ---

// Envelope is the session message frame: a type tag plus an opaque
// payload the handler for that type decodes.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// persistedState is the blob written to the snapshot store.
type persistedState struct {
	Universe     *Universe                   `json:"universe"`
	Characters   map[string]*Character       `json:"characters"`
	Territories  []*Territory                `json:"territories"`
	Missions     map[string][]*Mission       `json:"missions"`
	Leverage     map[string]*LeverageProfile `json:"leverage_data"`
	Achievements map[string][]Achievement    `json:"achievements"`
}
