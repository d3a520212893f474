package main

import (
	"encoding/json"
	"testing"
	"time"
)

func mustPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestClaimTerritory(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	var free *Territory
	for _, tr := range territories {
		if tr.ControlledBy == "" {
			free = tr
			break
		}
	}
	worldLock.Unlock()
	if free == nil {
		t.Fatal("no unclaimed territory in fresh world")
	}

	payload := mustPayload(t, map[string]string{"territoryId": free.ID})
	if err := handleClaimTerritory(s, payload); err != nil {
		t.Fatalf("claim: %v", err)
	}

	worldLock.Lock()
	owner := free.ControlledBy
	worldLock.Unlock()
	if owner != "p1" {
		t.Errorf("owner = %q, want p1", owner)
	}

	// A held territory cannot be claimed, even by its holder.
	if err := handleClaimTerritory(s, payload); err == nil || err.Kind != ErrInvalidState {
		t.Fatalf("re-claim err = %v, want InvalidState", err)
	}
}

func TestHarvestResourceRequiresControl(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	var foreign *Territory
	for _, tr := range territories {
		if tr.ControlledBy == "" {
			foreign = tr
			break
		}
	}
	worldLock.Unlock()

	payload := mustPayload(t, map[string]string{"territoryId": foreign.ID})
	err := handleHarvestResource(s, payload)
	if err == nil || err.Kind != ErrInvalidState {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestHarvestResourceGrantsAndCounts(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	owned := playerTerritories("p1")[0]
	before := characters["p1"].Resources[owned.Resources[0].Type]
	harvestedBefore := characters["p1"].Harvested
	worldLock.Unlock()

	payload := mustPayload(t, map[string]string{"territoryId": owned.ID})
	if err := handleHarvestResource(s, payload); err != nil {
		t.Fatalf("harvest: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	c := characters["p1"]
	if c.Resources[owned.Resources[0].Type] <= before {
		t.Error("harvest granted nothing")
	}
	if c.Harvested <= harvestedBefore {
		t.Error("lifetime harvest counter not advanced")
	}
}

func TestDeployResearchChargesAndBuffs(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	energyBefore := characters["p1"].Resources["energy"]
	worldLock.Unlock()

	payload := mustPayload(t, map[string]interface{}{"tech": "attack_boost"})
	if err := handleDeployResearch(s, payload); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	c := characters["p1"]
	if got := c.Resources["energy"]; got != energyBefore-DeployResearchCost {
		t.Errorf("energy = %d, want %d", got, energyBefore-DeployResearchCost)
	}
	profile := leverageData["p1"]
	if !almost(profile.Research["attack_boost"], ResearchStep) {
		t.Errorf("persistent research = %v, want %v", profile.Research["attack_boost"], ResearchStep)
	}
	buff := profile.TempBuffs["attack_boost"]
	if buff == nil {
		t.Fatal("no temp buff recorded")
	}
	if buff.ExpiresAt <= time.Now().Unix() {
		t.Error("temp buff already expired")
	}
}

func TestDeployResearchInsufficientEnergy(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	characters["p1"].Resources["energy"] = 5
	worldLock.Unlock()

	err := handleDeployResearch(s, nil)
	if err == nil || err.Kind != ErrInsufficientResources {
		t.Fatalf("err = %v, want InsufficientResources", err)
	}
}

func TestResearchValidatesBranch(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	worldLock.Unlock()

	payload := mustPayload(t, map[string]string{"tech": "time_travel"})
	err := handleResearch(s, payload)
	if err == nil || err.Kind != ErrNotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestResearchChargesCrystals(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	crystalsBefore := characters["p1"].Resources["crystals"]
	worldLock.Unlock()

	if err := handleResearch(s, nil); err != nil {
		t.Fatalf("research: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	if got := characters["p1"].Resources["crystals"]; got != crystalsBefore-ResearchCrystalCost {
		t.Errorf("crystals = %d, want %d", got, crystalsBefore-ResearchCrystalCost)
	}
	if !almost(leverageData["p1"].Research["resource_efficiency"], ResearchStep) {
		t.Error("persistent research not advanced")
	}
	// Unlike deploy_research, no temp buff is granted.
	if len(leverageData["p1"].TempBuffs) != 0 {
		t.Error("research must not grant a temp buff")
	}
}

func TestBuildSatellite(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	var home *Planet
	for _, p := range allPlanets() {
		if p.ControlledBy == "p1" {
			home = p
			break
		}
	}
	defenseBefore := home.Defense
	mineralsBefore := characters["p1"].Resources["minerals"]
	worldLock.Unlock()

	payload := mustPayload(t, map[string]string{"planet_id": home.ID})
	if err := handleBuildSatellite(s, payload); err != nil {
		t.Fatalf("build: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	if home.Defense != defenseBefore+1 {
		t.Errorf("defense = %d, want %d", home.Defense, defenseBefore+1)
	}
	if got := characters["p1"].Resources["minerals"]; got != mineralsBefore-SatelliteCost {
		t.Errorf("minerals = %d, want %d", got, mineralsBefore-SatelliteCost)
	}
	if mirror := findTerritory(home.ID); mirror == nil || mirror.Defense != home.Defense {
		t.Error("territory mirror out of sync after satellite")
	}
}

func TestDefendAllChargesPerSector(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	owned := playerTerritories("p1")
	energyBefore := characters["p1"].Resources["energy"]
	defenseBefore := owned[0].Defense
	count := len(owned)
	worldLock.Unlock()

	if err := handleDefendAll(s, nil); err != nil {
		t.Fatalf("defend_all: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	wantEnergy := energyBefore - DefendAllCostPerSector*count
	if got := characters["p1"].Resources["energy"]; got != wantEnergy {
		t.Errorf("energy = %d, want %d", got, wantEnergy)
	}
	if owned[0].Defense != defenseBefore+1 {
		t.Errorf("defense = %d, want %d", owned[0].Defense, defenseBefore+1)
	}
}

func TestExploreNewSectors(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	before := len(playerTerritories("p1"))
	worldLock.Unlock()

	if err := handleExploreNewSectors(s, nil); err != nil {
		t.Fatalf("explore: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	if got := len(playerTerritories("p1")); got != before+2 {
		t.Errorf("territories = %d, want %d", got, before+2)
	}
}

func TestAutoHarvestTakesTenPercent(t *testing.T) {
	setupTestEnv(t)
	s := deadSession("p1")

	worldLock.Lock()
	provisionPlayer("p1")
	// Pin a single territory with known stock.
	territories = []*Territory{{
		ID:           "t-fixed",
		ControlledBy: "p1",
		Resources:    []Resource{{Type: "energy", Amount: 200}},
	}}
	characters["p1"].Resources["energy"] = 0
	worldLock.Unlock()

	if err := handleAutoHarvest(s, nil); err != nil {
		t.Fatalf("auto_harvest: %v", err)
	}

	worldLock.Lock()
	defer worldLock.Unlock()
	if got := characters["p1"].Resources["energy"]; got != 20 {
		t.Errorf("energy = %d, want 10%% of stock (20)", got)
	}
}
