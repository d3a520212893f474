package main

import (
	"fmt"
	"time"
)

// --- Scoring Engine ---

// Factor caps. All factors are independently capped, summed, then the
// total is clamped into [1.0, 2.0].
const (
	territoryCap   = 0.30
	resourceCap    = 0.20
	missionCap     = 0.25
	levelCap       = 0.25
	achievementCap = 0.20
	researchCap    = 0.30
	tempBuffCap    = 0.20

	maxMultiplier = 2.0
)

// profileFor returns the player's stored profile, creating it on first
// use. Snapshots from older servers may restore a character without
// one. Caller holds worldLock.
func profileFor(playerID string) *LeverageProfile {
	profile := leverageData[playerID]
	if profile == nil {
		profile = &LeverageProfile{
			Research:  make(map[string]float64),
			TempBuffs: make(map[string]*TempBuff),
		}
		leverageData[playerID] = profile
	}
	return profile
}

func neutralLeverage() LeverageResult {
	return LeverageResult{
		Total:             1.0,
		BaseRate:          1.0,
		Bonuses:           map[string]BonusDetail{},
		PotentialIncrease: maxMultiplier - 1.0,
	}
}

// computeLeverage aggregates a player's progress signals into the
// bounded combat/harvest multiplier. The call doubles as a garbage
// collection pass: expired temp buffs are removed from the stored
// profile. Unknown players get the neutral result, in the same shape
// as every other result. Caller holds worldLock.
func computeLeverage(playerID string) LeverageResult {
	character, ok := characters[playerID]
	if !ok {
		return neutralLeverage()
	}
	profile := profileFor(playerID)

	bonuses := make(map[string]BonusDetail)

	// Territory control
	owned := len(playerTerritories(playerID))
	territoryBonus := capped(float64(owned)*0.05, territoryCap)
	profile.TerritoryBonus = territoryBonus
	if territoryBonus > 0 {
		bonuses["territory"] = detail(territoryBonus, territoryCap,
			fmt.Sprintf("Controlling %d territories", owned))
	}

	// Resource diversity
	distinct := 0
	for _, amount := range character.Resources {
		if amount > 0 {
			distinct++
		}
	}
	resourceBonus := capped(float64(distinct)*0.05, resourceCap)
	profile.ResourceBonus = resourceBonus
	if resourceBonus > 0 {
		bonuses["resources"] = detail(resourceBonus, resourceCap,
			fmt.Sprintf("Diversified %d resource types", distinct))
	}

	// Missions
	completed, active := 0, 0
	for _, m := range missions[playerID] {
		switch {
		case m.Progress >= 100:
			completed++
		case m.Progress > 0:
			active++
		}
	}
	missionBonus := capped(float64(completed)*0.025+float64(active)*0.01, missionCap)
	profile.MissionBonus = missionBonus
	if missionBonus > 0 {
		bonuses["missions"] = detail(missionBonus, missionCap,
			fmt.Sprintf("%d completed, %d active missions", completed, active))
	}

	// Level progression
	levelBonus := capped(float64(character.Level-1)*0.05, levelCap)
	profile.LevelBonus = levelBonus
	if levelBonus > 0 {
		bonuses["level"] = detail(levelBonus, levelCap,
			fmt.Sprintf("Level %d progression", character.Level))
	}

	// Achievements
	unlocked := len(achievements[playerID])
	achievementBonus := capped(float64(unlocked)*0.02, achievementCap)
	profile.AchievementBonus = achievementBonus
	if achievementBonus > 0 {
		bonuses["achievements"] = detail(achievementBonus, achievementCap,
			fmt.Sprintf("%d achievements unlocked", unlocked))
	}

	// Persistent research
	researchTotal := 0.0
	for _, v := range profile.Research {
		researchTotal += v
	}
	researchTotal = capped(researchTotal, researchCap)
	if researchTotal > 0 {
		bonuses["research"] = detail(researchTotal, researchCap, "Technology advancements")
	}

	// Temporary buffs: expired entries are dropped from the profile
	// here, on every compute.
	now := time.Now().Unix()
	tempTotal := 0.0
	for tech, buff := range profile.TempBuffs {
		if buff.ExpiresAt <= now || buff.Level <= 0 {
			delete(profile.TempBuffs, tech)
			continue
		}
		tempTotal += buff.Level
	}
	tempTotal = capped(tempTotal, tempBuffCap)
	if tempTotal > 0 {
		bonuses["temp_buffs"] = detail(tempTotal, tempBuffCap, "Recent research deployments")
	}

	total := 1.0
	for _, b := range bonuses {
		total += b.Value
	}
	if total > maxMultiplier {
		total = maxMultiplier
	}
	if total < 1.0 {
		total = 1.0
	}

	return LeverageResult{
		Total:             total,
		BaseRate:          1.0,
		Bonuses:           bonuses,
		Efficiency:        (total - 1.0) / (maxMultiplier - 1.0),
		PotentialIncrease: maxMultiplier - total,
		TempBuffs:         profile.TempBuffs,
	}
}

func capped(value, cap float64) float64 {
	if value > cap {
		return cap
	}
	return value
}

func detail(value, max float64, description string) BonusDetail {
	return BonusDetail{Value: value, Description: description, Max: max, Progress: value / max}
}
