package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGenerateMissions(t *testing.T) {
	setupTestEnv(t)

	batch := generateMissions(3)
	if len(batch) != 3 {
		t.Fatalf("len = %d, want 3", len(batch))
	}
	for _, m := range batch {
		if !strings.HasPrefix(m.ID, "mission-") {
			t.Errorf("mission ID %q lacks prefix", m.ID)
		}
		if m.Progress != 0 {
			t.Errorf("fresh mission has progress %d", m.Progress)
		}
		if m.Reward.Amount <= 0 {
			t.Errorf("mission %q has no reward", m.Title)
		}
		if _, ok := missionTypes[m.Type]; !ok {
			t.Errorf("unknown mission type %q", m.Type)
		}
	}
}

func TestGenerateMissionsScalesWithLevel(t *testing.T) {
	setupTestEnv(t)

	// Level 5 rewards are at least (1 + 4*0.5) * 0.8 = 2.0x the base;
	// level 1 rewards are at most 1.2x. No overlap.
	for _, m := range generateMissions(5) {
		base := missionTypes[m.Type].BaseReward
		if m.Reward.Amount < base*2 {
			t.Errorf("level 5 reward %d below scaling floor %d", m.Reward.Amount, base*2)
		}
	}
	for _, m := range generateMissions(1) {
		base := missionTypes[m.Type].BaseReward
		if m.Reward.Amount > base*12/10 {
			t.Errorf("level 1 reward %d above ceiling %d", m.Reward.Amount, base*12/10)
		}
	}
}

func TestAdvanceMissionsCapsAt100(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	defer worldLock.Unlock()
	provisionPlayer("p1")

	m := &Mission{
		ID:           "m-test",
		Type:         "Gather resources",
		Reward:       Reward{Type: "energy", Amount: 100},
		Progress:     95,
		ProgressRate: 1.0,
		BonusConditions: BonusConditions{
			TerritoryControl:  99,
			ResourceThreshold: 1 << 30,
		},
	}
	missions["p1"] = []*Mission{m}

	territory := &Territory{
		ID:           "t-test",
		ControlledBy: "p1",
		Resources:    []Resource{{Type: "energy", Amount: 100}},
	}
	updates := advanceMissions("p1", territory)

	if m.Progress != 100 {
		t.Errorf("progress = %d, want capped 100", m.Progress)
	}
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].PreviousProgress != 95 || updates[0].NewProgress != 100 {
		t.Errorf("update = %+v", updates[0])
	}
}

func TestAdvanceMissionsSkipsIdleAndDone(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	defer worldLock.Unlock()
	provisionPlayer("p1")

	missions["p1"] = []*Mission{
		{ID: "idle", Type: "Explore territory", Progress: 0, ProgressRate: 1},
		{ID: "done", Type: "Explore territory", Progress: 100, ProgressRate: 1},
	}
	updates := advanceMissions("p1", &Territory{ControlledBy: "p1"})

	if len(updates) != 0 {
		t.Errorf("idle/done missions advanced: %+v", updates)
	}
}

func TestGrantExperienceLevelUp(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	defer worldLock.Unlock()
	characters["p1"] = &Character{Level: 1}

	if grantExperience("p1", 500) {
		t.Error("500 XP must not level a fresh character")
	}
	if !grantExperience("p1", 500) {
		t.Error("1000 total XP must reach level 2")
	}
	c := characters["p1"]
	if c.Level != 2 || c.Experience != 0 {
		t.Errorf("after level-up: level %d xp %d, want 2/0", c.Level, c.Experience)
	}

	// The gate scales with the new level: 2000 XP for level 3.
	if grantExperience("p1", 1999) {
		t.Error("1999 XP must not reach level 3")
	}
}

func TestCheckAchievementsRecordsTiers(t *testing.T) {
	setupTestEnv(t)

	worldLock.Lock()
	defer worldLock.Unlock()
	characters["p1"] = &Character{Harvested: 5000}

	checkAchievements("p1")

	var tiers []int
	for _, a := range achievements["p1"] {
		if a.Kind == "resource_master" {
			tiers = append(tiers, a.Level)
		}
	}
	if len(tiers) != 2 {
		t.Fatalf("resource_master tiers = %v, want levels 1 and 2", tiers)
	}

	// Re-running must not duplicate unlocks.
	checkAchievements("p1")
	if len(achievements["p1"]) != 2 {
		t.Errorf("re-check duplicated achievements: %d", len(achievements["p1"]))
	}
}

func TestCompleteMissionHandler(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	m := missions["p1"][0]
	m.Progress = 100
	rewardType := m.Reward.Type
	rewardAmount := m.Reward.Amount
	before := characters["p1"].Resources[rewardType]
	worldLock.Unlock()

	payload, _ := json.Marshal(map[string]string{"mission_id": m.ID})
	if err := handleCompleteMission(s, payload); err != nil {
		t.Fatalf("handleCompleteMission: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	c := characters["p1"]
	if got := c.Resources[rewardType]; got != before+rewardAmount {
		t.Errorf("reward not granted: %d, want %d", got, before+rewardAmount)
	}
	if c.MissionsCompleted != 1 {
		t.Errorf("MissionsCompleted = %d, want 1", c.MissionsCompleted)
	}
	if findMission("p1", m.ID) != nil {
		t.Error("completed mission still in list")
	}
	// Two survivors from the starting batch plus a fresh batch of 3.
	if got := len(missions["p1"]); got != 5 {
		t.Errorf("mission count = %d, want 5", got)
	}
}

func TestCompleteMissionRejectsUnfinished(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	m := missions["p1"][0]
	m.Progress = 60
	worldLock.Unlock()

	payload, _ := json.Marshal(map[string]string{"mission_id": m.ID})
	err := handleCompleteMission(s, payload)
	if err == nil || err.Kind != ErrInvalidState {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestAcceptMissionMarksProgress(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	m := missions["p1"][0]
	worldLock.Unlock()

	payload, _ := json.Marshal(map[string]string{"mission_id": m.ID})
	if err := handleAcceptMission(s, payload); err != nil {
		t.Fatalf("handleAcceptMission: %v", err)
	}

	worldLock.Lock()
	progress := m.Progress
	started := m.TimeStarted
	worldLock.Unlock()
	if progress != 10 {
		t.Errorf("progress = %d, want 10", progress)
	}
	if started == 0 {
		t.Error("TimeStarted not stamped")
	}

	// Accepting twice is an invalid state.
	if err := handleAcceptMission(s, payload); err == nil || err.Kind != ErrInvalidState {
		t.Fatalf("second accept err = %v, want InvalidState", err)
	}
}
