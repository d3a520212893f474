package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grichgrich/honey/pkg/game"
)

// --- Mission Generation ---

type missionSpec struct {
	Descriptions []string
	RewardTypes  []string
	BaseReward   int
	ProgressRate float64
}

var missionTypes = map[string]missionSpec{
	"Explore territory": {
		Descriptions: []string{
			"Scout the outer reaches of {territory} for valuable resources",
			"Map uncharted regions of {territory} for strategic advantage",
			"Investigate anomalous energy signatures in {territory}",
		},
		RewardTypes:  []string{"energy", "minerals"},
		BaseReward:   150,
		ProgressRate: 1.2,
	},
	"Gather resources": {
		Descriptions: []string{
			"Extract vital {resource} deposits from {territory}",
			"Harvest rare {resource} from unstable formations in {territory}",
			"Collect valuable {resource} from deep within {territory}",
		},
		RewardTypes:  []string{"crystals", "gas"},
		BaseReward:   100,
		ProgressRate: 1.0,
	},
	"Defend position": {
		Descriptions: []string{
			"Protect {territory} mining operations from raiders",
			"Secure strategic resource points in {territory}",
			"Guard {territory} supply lines from hostile forces",
		},
		RewardTypes:  []string{"energy", "minerals"},
		BaseReward:   200,
		ProgressRate: 0.8,
	},
	"Research technology": {
		Descriptions: []string{
			"Study advanced {resource} extraction methods",
			"Analyze alien technology artifacts found in {territory}",
			"Develop improved {resource} conversion systems",
		},
		RewardTypes:  []string{"crystals", "gas"},
		BaseReward:   250,
		ProgressRate: 0.6,
	},
}

func missionTypeNames() []string {
	names := make([]string, 0, len(missionTypes))
	for name := range missionTypes {
		names = append(names, name)
	}
	return names
}

// generateMissions rolls three missions scaled to the character level.
func generateMissions(level int) []*Mission {
	names := missionTypeNames()
	out := make([]*Mission, 0, 3)
	for i := 0; i < 3; i++ {
		name := names[rand.Intn(len(names))]
		spec := missionTypes[name]
		territory := TerritoryNames[rand.Intn(len(TerritoryNames))]
		rewardType := spec.RewardTypes[rand.Intn(len(spec.RewardTypes))]

		levelMult := 1 + float64(level-1)*0.5
		variation := 0.8 + rand.Float64()*0.4
		rewardAmount := int(float64(spec.BaseReward) * levelMult * variation)

		desc := spec.Descriptions[rand.Intn(len(spec.Descriptions))]
		desc = strings.ReplaceAll(desc, "{territory}", territory)
		desc = strings.ReplaceAll(desc, "{resource}", titleCase(rewardType))

		out = append(out, &Mission{
			ID:           "mission-" + uuid.NewString(),
			Title:        fmt.Sprintf("Level %d %s", level, name),
			Description:  desc,
			Type:         name,
			Territory:    territory,
			Reward:       Reward{Type: rewardType, Amount: rewardAmount},
			ProgressRate: spec.ProgressRate,
			BonusConditions: BonusConditions{
				TerritoryControl:  1 + rand.Intn(3),
				ResourceThreshold: rewardAmount * 2,
			},
		})
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func findMission(playerID, missionID string) *Mission {
	for _, m := range missions[playerID] {
		if m.ID == missionID {
			return m
		}
	}
	return nil
}

// --- Progress Engine ---

type missionUpdate struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	PreviousProgress int    `json:"previous_progress"`
	NewProgress      int    `json:"new_progress"`
	Increase         int    `json:"increase"`
}

// advanceMissions pushes every in-flight mission forward after a
// harvest, with type-specific increments and the two bonus-condition
// multipliers. Caller holds worldLock.
func advanceMissions(playerID string, territory *Territory) []missionUpdate {
	character := characters[playerID]
	var updates []missionUpdate

	for _, m := range missions[playerID] {
		if m.Progress <= 0 || m.Progress >= 100 {
			continue
		}
		before := m.Progress
		increase := 0

		switch m.Type {
		case "Gather resources":
			if territoryYields(territory, m.Reward.Type) {
				increase = 20 + rand.Intn(16)
			} else {
				increase = 10 + rand.Intn(11)
			}
		case "Explore territory":
			if m.Territory == territory.Name {
				increase = 25 + rand.Intn(16)
			} else {
				increase = 15 + rand.Intn(11)
			}
		case "Defend position":
			if territory.ControlledBy == playerID {
				increase = 15 + rand.Intn(16)
			}
		case "Research technology":
			unique := map[string]bool{}
			for _, r := range territory.Resources {
				unique[r.Type] = true
			}
			increase = (5 + rand.Intn(11)) * len(unique)
		}

		increase = int(float64(increase) * m.ProgressRate)

		if len(playerTerritories(playerID)) >= m.BonusConditions.TerritoryControl {
			increase = increase * 3 / 2
		}
		totalResources := 0
		for _, amount := range character.Resources {
			totalResources += amount
		}
		if totalResources >= m.BonusConditions.ResourceThreshold {
			increase = increase * 13 / 10
		}

		m.Progress = min(100, m.Progress+increase)
		if m.Progress > before {
			updates = append(updates, missionUpdate{
				ID:               m.ID,
				Type:             m.Type,
				PreviousProgress: before,
				NewProgress:      m.Progress,
				Increase:         increase,
			})
		}
	}
	return updates
}

func territoryYields(t *Territory, resourceType string) bool {
	for _, r := range t.Resources {
		if r.Type == resourceType {
			return true
		}
	}
	return false
}

// grantExperience adds XP and levels the character up at the
// 1000-per-level gate. Caller holds worldLock.
func grantExperience(playerID string, amount int) bool {
	character := characters[playerID]
	character.Experience += amount
	if character.Experience >= LevelUpExperience*character.Level {
		character.Level++
		character.Experience = 0
		return true
	}
	return false
}

// --- Achievements ---

// checkAchievements re-derives every achievement tier from the
// character's lifetime counters and records fresh unlocks. Caller
// holds worldLock.
func checkAchievements(playerID string) {
	character, ok := characters[playerID]
	if !ok {
		return
	}

	stats := map[string]int{
		"resource_master":    character.Harvested,
		"territory_expander": len(playerTerritories(playerID)),
		"combat_expert":      character.Defeated,
		"mission_specialist": character.MissionsCompleted,
	}

	unlocked := achievements[playerID]
	have := make(map[string]int)
	for _, a := range unlocked {
		if a.Level > have[a.Kind] {
			have[a.Kind] = a.Level
		}
	}

	now := time.Now().Unix()
	for kind, value := range stats {
		level := game.AchievementLevel(kind, value)
		for l := have[kind] + 1; l <= level; l++ {
			unlocked = append(unlocked, Achievement{
				Kind:       kind,
				Level:      l,
				Threshold:  game.AchievementTypes[kind].Levels[l-1],
				UnlockedAt: now,
			})
			InfoLog.Printf("Achievement unlocked for %s: %s level %d", playerID, kind, l)
		}
	}
	achievements[playerID] = unlocked
}
