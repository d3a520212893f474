package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grichgrich/honey/pkg/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from arbitrary origins during dev.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and runs the session read loop.
// The player identity is an opaque caller-supplied token; it is never
// derived from the transport address.
func handleWS(w http.ResponseWriter, r *http.Request) {
	sessionWG.Add(1)
	defer sessionWG.Done()

	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		http.Error(w, "missing player identity", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ErrorLog.Printf("Upgrade failed for %s: %v", playerID, err)
		return
	}
	conn.SetReadLimit(1 << 20)

	s := connectSession(conn, playerID)
	defer disconnectSession(s)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			InfoLog.Printf("Read loop ended for %s: %v", playerID, err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.send("error", "Invalid JSON message")
			continue
		}
		dispatch(s, env)
	}
}

type commandFunc func(s *Session, payload json.RawMessage) *GameError

var commands = map[string]commandFunc{
	"get_world":            handleGetWorld,
	"explore_system":       handleExploreSystem,
	"move_units":           handleMoveUnits,
	"harvest_planet":       handleHarvestPlanet,
	"build_satellite":      handleBuildSatellite,
	"deploy_research":      handleDeployResearch,
	"attack_planet":        handleAttackPlanet,
	"claim_territory":      handleClaimTerritory,
	"harvest_resource":     handleHarvestResource,
	"accept_mission":       handleAcceptMission,
	"complete_mission":     handleCompleteMission,
	"request_new_missions": handleRequestNewMissions,
	"calculate_leverage":   handleCalculateLeverage,
	"auto_harvest":         handleAutoHarvest,
	"explore_new_sectors":  handleExploreNewSectors,
	"defend_all":           handleDefendAll,
	"research":             handleResearch,
	"execute_strategy":     handleExecuteStrategy,
	"analyze_game_state":   handleAnalyzeGameState,
	"territory_action":     handleTerritoryAction,
	"tutorial_skipped":     handleTutorialSkipped,
}

// dispatch routes one envelope. Control frames refresh the keepalive
// deadline; everything else goes through a handler whose typed error
// becomes a single error envelope. Nothing here may kill the loop.
func dispatch(s *Session, env Envelope) {
	switch env.Type {
	case "":
		s.send("error", "Message type not provided")
		return
	case "ping":
		s.touchPong()
		s.send("pong", nil)
		return
	case "pong":
		s.touchPong()
		return
	}

	handler, ok := commands[env.Type]
	if !ok {
		ErrorLog.Printf("Unknown message type from %s: %s", s.PlayerID, env.Type)
		s.send("error", "Unknown message type: "+env.Type)
		return
	}

	if err := handler(s, env.Payload); err != nil {
		if err.Kind == ErrTransient {
			// Transport failures are logged and swallowed; the session
			// teardown already happened in send.
			return
		}
		s.send("error", err.Msg)
	}
}

func decode(payload json.RawMessage, v interface{}) *GameError {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errProtocol("Malformed payload: %v", err)
	}
	return nil
}

// --- World Commands ---

func handleGetWorld(s *Session, _ json.RawMessage) *GameError {
	worldLock.Lock()
	ensureHomePlanet(s.PlayerID)
	raw, err := json.Marshal(universe)
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal universe: %v", err)
	}

	s.send("world_state", json.RawMessage(raw))
	pushState(s)
	return nil
}

func handleExploreSystem(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		SystemID string `json:"system_id"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}

	worldLock.Lock()
	system := findSystem(req.SystemID)
	if system == nil {
		worldLock.Unlock()
		return errNotFound("System not found")
	}
	raw, err := json.Marshal(system)
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal system: %v", err)
	}

	s.send("explore_result", json.RawMessage(raw))
	return nil
}

func handleMoveUnits(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		FromID string `json:"from_id"`
		ToID   string `json:"to_id"`
		Amount int    `json:"amount"`
	}{Amount: 10}
	if err := decode(payload, &req); err != nil {
		return err
	}

	worldLock.Lock()
	sp := findPlanet(req.FromID)
	tp := findPlanet(req.ToID)
	if sp == nil || tp == nil {
		worldLock.Unlock()
		return errNotFound("Invalid source or target planet")
	}
	fromPos, toPos := sp.Position, tp.Position
	worldLock.Unlock()

	s.send("units_moved", map[string]interface{}{
		"from_id":       req.FromID,
		"to_id":         req.ToID,
		"amount":        req.Amount,
		"from_position": fromPos,
		"to_position":   toPos,
		"eta_ms":        12000,
		"owner":         s.PlayerID,
	})
	return nil
}

func handleAttackPlanet(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		FromID   string `json:"from_id"`
		PlanetID string `json:"planet_id"`
		Amount   int    `json:"amount"`
	}{Amount: 20}
	if err := decode(payload, &req); err != nil {
		return err
	}
	if req.Amount <= 0 {
		return errProtocol("Attack amount must be positive")
	}
	return beginAttack(s, req.FromID, req.PlanetID, req.Amount)
}

// --- Planet Economy ---

func handleHarvestPlanet(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		PlanetID string `json:"planet_id"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	planet := findPlanet(req.PlanetID)
	if planet == nil {
		worldLock.Unlock()
		return errNotFound("Planet not found")
	}
	if planet.ControlledBy != playerID {
		worldLock.Unlock()
		return errInvalidState("You do not control this planet")
	}

	mult := computeLeverage(playerID).Total
	gainEnergy := int(float64(8+rand.Intn(11)) * mult)
	gainMinerals := int(float64(5+rand.Intn(8)) * mult)

	character := characters[playerID]
	character.Resources["energy"] += gainEnergy
	character.Resources["minerals"] += gainMinerals
	character.Harvested += gainEnergy + gainMinerals
	checkAchievements(playerID)
	name := planet.Name
	worldLock.Unlock()

	s.send("harvest_planet_result", map[string]interface{}{
		"planet_id": req.PlanetID,
		"energy":    gainEnergy,
		"minerals":  gainMinerals,
		"message":   "Harvested resources from " + name,
	})

	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

func handleBuildSatellite(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		PlanetID string `json:"planet_id"`
		Cost     int    `json:"cost"`
	}{Cost: SatelliteCost}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	planet := findPlanet(req.PlanetID)
	if planet == nil {
		worldLock.Unlock()
		return errNotFound("Planet not found")
	}
	if planet.ControlledBy != playerID {
		worldLock.Unlock()
		return errInvalidState("You do not control this planet")
	}
	character := characters[playerID]
	if character.Resources["minerals"] < req.Cost {
		worldLock.Unlock()
		return errInsufficient("Not enough minerals")
	}

	character.Resources["minerals"] -= req.Cost
	planet.Defense++
	mirrorPlanet(planet)
	defense := planet.Defense
	owner := planet.ControlledBy
	pos := planet.Position
	worldLock.Unlock()

	s.send("planet_updated", map[string]interface{}{
		"planet_id": req.PlanetID,
		"defense":   defense,
		"owner":     owner,
		"position":  pos,
		"message":   "Defense increased via satellite deployment",
	})

	pushState(s)
	scheduleSave()
	return nil
}

func handleDeployResearch(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		Tech string `json:"tech"`
		Cost int    `json:"cost"`
	}{Tech: "attack_boost", Cost: DeployResearchCost}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	if character.Resources["energy"] < req.Cost {
		worldLock.Unlock()
		return errInsufficient("Not enough energy")
	}
	character.Resources["energy"] -= req.Cost

	profile := profileFor(playerID)
	profile.Research[req.Tech] += ResearchStep
	level := profile.Research[req.Tech]

	// The deployment also grants a short-lived buff on top of the
	// persistent bonus.
	buff := profile.TempBuffs[req.Tech]
	if buff == nil {
		buff = &TempBuff{}
		profile.TempBuffs[req.Tech] = buff
	}
	buff.Level += ResearchStep
	buff.ExpiresAt = time.Now().Add(TempBuffDuration).Unix()
	tempLevel := buff.Level
	worldLock.Unlock()

	s.send("research_result", map[string]interface{}{
		"tech":       req.Tech,
		"level":      level,
		"bonus":      level,
		"temp_level": tempLevel,
		"message":    "Research deployed: " + req.Tech,
	})

	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

// --- Territory Commands ---

func handleClaimTerritory(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		TerritoryID string `json:"territoryId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	if _, ok := characters[playerID]; !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	territory := findTerritory(req.TerritoryID)
	if territory == nil {
		worldLock.Unlock()
		return errNotFound("Territory not found")
	}
	if territory.ControlledBy != "" {
		worldLock.Unlock()
		return errInvalidState("Territory already controlled")
	}

	territory.ControlledBy = playerID
	checkAchievements(playerID)
	worldLock.Unlock()

	InfoLog.Printf("Territory %s claimed by %s", req.TerritoryID, playerID)
	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

func handleHarvestResource(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		TerritoryID string `json:"territoryId"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	territory := findTerritory(req.TerritoryID)
	if territory == nil {
		worldLock.Unlock()
		return errNotFound("Territory not found")
	}
	if territory.ControlledBy != playerID {
		worldLock.Unlock()
		return errInvalidState("Territory not controlled by player")
	}

	mult := computeLeverage(playerID).Total
	type harvestEntry struct {
		Type        string `json:"type"`
		BaseAmount  int    `json:"base_amount"`
		BonusAmount int    `json:"bonus_amount"`
		TotalAmount int    `json:"total_amount"`
	}
	var results []harvestEntry
	totalValue := 0
	for _, resource := range territory.Resources {
		base := 10 + rand.Intn(21)
		bonus := int(float64(base) * (mult - 1))
		total := base + bonus
		character.Resources[resource.Type] += total
		character.Harvested += total
		totalValue += total
		results = append(results, harvestEntry{resource.Type, base, bonus, total})
	}

	updates := advanceMissions(playerID, territory)
	checkAchievements(playerID)
	name := territory.Name
	worldLock.Unlock()

	s.send("harvest_result", map[string]interface{}{
		"territory_id":    req.TerritoryID,
		"territory_name":  name,
		"multiplier":      mult,
		"resources":       results,
		"total_value":     totalValue,
		"mission_updates": updates,
	})

	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

func handleAutoHarvest(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		Enabled bool `json:"enabled"`
	}{Enabled: true}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	owned := playerTerritories(playerID)
	if len(owned) == 0 {
		worldLock.Unlock()
		return errInvalidState("No territories to harvest from")
	}

	harvested := emptyResources()
	for _, t := range owned {
		for _, r := range t.Resources {
			amount := r.Amount / 10
			harvested[r.Type] += amount
			character.Resources[r.Type] += amount
			character.Harvested += amount
		}
	}
	checkAchievements(playerID)
	count := len(owned)
	worldLock.Unlock()

	s.send("auto_harvest_result", map[string]interface{}{
		"enabled":   req.Enabled,
		"harvested": harvested,
		"message":   "Auto-harvest complete",
		"count":     count,
	})

	pushState(s)
	return nil
}

func handleExploreNewSectors(s *Session, _ json.RawMessage) *GameError {
	playerID := s.PlayerID

	worldLock.Lock()
	if _, ok := characters[playerID]; !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	existing := len(playerTerritories(playerID))

	var discovered []*Territory
	for i := 0; i < 2; i++ {
		n := strconv.Itoa(existing + i + 1)
		t := &Territory{
			ID:           "sector-" + playerID + "-" + n,
			Name:         "Gamma Sector " + n,
			ControlledBy: playerID,
			Position: Vec3{
				X: float64(rand.Intn(21) - 10),
				Y: float64(rand.Intn(11) - 5),
				Z: float64(rand.Intn(17) - 8),
			},
			Resources: []Resource{
				{Type: "energy", Amount: 50 + rand.Intn(151), MaxCapacity: 300},
				{Type: "minerals", Amount: 30 + rand.Intn(121), MaxCapacity: 200},
			},
		}
		territories = append(territories, t)
		discovered = append(discovered, t)
	}
	checkAchievements(playerID)
	raw, err := json.Marshal(map[string]interface{}{
		"discovered":  len(discovered),
		"territories": discovered,
		"message":     "Discovered new sectors",
	})
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal sectors: %v", err)
	}

	s.send("exploration_result", json.RawMessage(raw))
	pushState(s)
	scheduleSave()
	return nil
}

func handleDefendAll(s *Session, _ json.RawMessage) *GameError {
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	owned := playerTerritories(playerID)
	if len(owned) == 0 {
		worldLock.Unlock()
		return errInvalidState("No territories to defend")
	}

	totalCost := DefendAllCostPerSector * len(owned)
	if character.Resources["energy"] < totalCost {
		worldLock.Unlock()
		return errInsufficient("Not enough energy. Need %d, have %d",
			totalCost, character.Resources["energy"])
	}

	character.Resources["energy"] -= totalCost
	for _, t := range owned {
		t.Defense++
		// Keep the universe view in sync for mirrored planets.
		if p := findPlanet(t.ID); p != nil {
			p.Defense = t.Defense
		}
	}
	upgraded := len(owned)
	worldLock.Unlock()

	s.send("defense_result", map[string]interface{}{
		"upgraded": upgraded,
		"cost":     totalCost,
		"message":  "Upgraded defenses",
	})

	pushState(s)
	scheduleSave()
	return nil
}

// --- Research & Leverage ---

func handleResearch(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		Tech string `json:"tech"`
	}{Tech: string(game.TechResourceEfficiency)}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID
	tech := game.Tech(req.Tech)

	spec, known := game.ResearchTree[tech]
	if !known {
		return errNotFound("Unknown research branch: %s", req.Tech)
	}

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	profile := profileFor(playerID)
	level := int(profile.Research[req.Tech]/ResearchStep + 0.5)
	if level >= spec.MaxLevel {
		worldLock.Unlock()
		return errInvalidState("Research branch fully developed")
	}

	nextCost := game.ResearchCost(tech, level+1)
	if character.Resources["crystals"] < ResearchCrystalCost {
		worldLock.Unlock()
		return errInsufficient("Not enough crystals. Need %d, have %d",
			ResearchCrystalCost, character.Resources["crystals"])
	}

	character.Resources["crystals"] -= ResearchCrystalCost
	profile.Research[req.Tech] += ResearchStep
	newLevel := profile.Research[req.Tech]
	worldLock.Unlock()

	s.send("research_result", map[string]interface{}{
		"tech":      req.Tech,
		"level":     newLevel,
		"cost":      ResearchCrystalCost,
		"next_cost": nextCost,
		"message":   "Research completed: " + req.Tech,
	})

	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

func handleCalculateLeverage(s *Session, _ json.RawMessage) *GameError {
	worldLock.Lock()
	raw, err := json.Marshal(computeLeverage(s.PlayerID))
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal leverage: %v", err)
	}

	s.send("leverage_calculated", json.RawMessage(raw))
	return nil
}

// --- Missions ---

func handleAcceptMission(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		MissionID string `json:"mission_id"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	if _, ok := characters[playerID]; !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	mission := findMission(playerID, req.MissionID)
	if mission == nil {
		worldLock.Unlock()
		return errNotFound("Mission not found")
	}
	if mission.Progress > 0 {
		worldLock.Unlock()
		return errInvalidState("Mission already in progress")
	}

	mission.Progress = 10
	mission.TimeStarted = time.Now().UnixMilli()

	// Suggest a target territory for the client to fly to.
	var target *Territory
	for _, t := range territories {
		if t.ControlledBy == playerID {
			target = t
			break
		}
	}
	if target == nil && len(territories) > 0 {
		target = territories[0]
	}

	payloadOut := map[string]interface{}{"mission": mission}
	if target != nil {
		payloadOut["target"] = map[string]interface{}{
			"territory_id": target.ID,
			"position":     target.Position,
		}
	}
	raw, err := json.Marshal(payloadOut)
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal mission: %v", err)
	}

	s.send("mission_accepted", json.RawMessage(raw))
	pushState(s)
	emitLeverageChanged(s)
	return nil
}

func handleCompleteMission(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		MissionID string `json:"mission_id"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	mission := findMission(playerID, req.MissionID)
	if mission == nil {
		worldLock.Unlock()
		return errNotFound("Mission not found")
	}
	if mission.Progress < 100 {
		worldLock.Unlock()
		return errInvalidState("Mission not completed")
	}

	character.Resources[mission.Reward.Type] += mission.Reward.Amount
	character.MissionsCompleted++
	leveledUp := grantExperience(playerID, mission.Reward.Amount)

	// Replace the finished mission with a fresh batch.
	remaining := missions[playerID][:0]
	for _, m := range missions[playerID] {
		if m.ID != mission.ID {
			remaining = append(remaining, m)
		}
	}
	missions[playerID] = append(remaining, generateMissions(character.Level)...)
	checkAchievements(playerID)
	worldLock.Unlock()

	InfoLog.Printf("Mission %s completed by %s (level up: %v)", req.MissionID, playerID, leveledUp)
	pushState(s)
	emitLeverageChanged(s)
	scheduleSave()
	return nil
}

func handleRequestNewMissions(s *Session, _ json.RawMessage) *GameError {
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}
	fresh := generateMissions(character.Level)
	missions[playerID] = append(missions[playerID], fresh...)

	// Keep only the latest 5.
	if n := len(missions[playerID]); n > 5 {
		missions[playerID] = missions[playerID][n-5:]
	}
	raw, err := json.Marshal(map[string]interface{}{
		"missions":       fresh,
		"total_missions": len(missions[playerID]),
		"message":        "Generated new missions",
	})
	worldLock.Unlock()
	if err != nil {
		return errTransient("marshal missions: %v", err)
	}

	s.send("new_missions_result", json.RawMessage(raw))
	pushState(s)
	return nil
}

// --- Advisory Commands ---

func handleExecuteStrategy(s *Session, payload json.RawMessage) *GameError {
	req := struct {
		Strategy string `json:"strategy"`
	}{Strategy: "territorial_expansion"}
	if err := decode(payload, &req); err != nil {
		return err
	}
	playerID := s.PlayerID

	worldLock.Lock()
	if _, ok := characters[playerID]; !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}

	var message string
	switch req.Strategy {
	case "territorial_expansion":
		count := min(2, len(playerTerritories(playerID)))
		message = "Expanded control over " + strconv.Itoa(count) + " additional sectors"
	case "resource_diversification":
		message = "Diversified resource extraction operations across all territories"
	case "mission_completion":
		message = "No active missions to complete"
		for _, m := range missions[playerID] {
			if m.Progress > 0 && m.Progress < 100 {
				m.Progress = 100
				message = "Completed mission: " + m.Type
				break
			}
		}
	default:
		message = "Executed strategy: " + req.Strategy
	}
	worldLock.Unlock()

	s.send("strategy_result", map[string]interface{}{
		"strategy": req.Strategy,
		"message":  message,
		"success":  true,
	})

	pushState(s)
	return nil
}

func handleAnalyzeGameState(s *Session, _ json.RawMessage) *GameError {
	playerID := s.PlayerID

	worldLock.Lock()
	character, ok := characters[playerID]
	if !ok {
		worldLock.Unlock()
		return errNotFound("Character not found")
	}

	owned := playerTerritories(playerID)
	playerMissions := missions[playerID]

	totalResources := 0
	for _, amount := range character.Resources {
		totalResources += amount
	}
	resourcePerTerritory := float64(totalResources) / float64(max(len(owned), 1))

	completed := 0
	for _, m := range playerMissions {
		if m.Progress >= 100 {
			completed++
		}
	}
	missionRate := float64(completed) / float64(max(len(playerMissions), 1))

	leverageEfficiency := computeLeverage(playerID).Efficiency
	worldLock.Unlock()

	var recommendations []string
	if len(owned) < 3 {
		recommendations = append(recommendations, "Claim more territories to increase resource generation")
	}
	if missionRate < 0.5 {
		recommendations = append(recommendations, "Focus on completing active missions to boost leverage multiplier")
	}
	if leverageEfficiency < 0.6 {
		recommendations = append(recommendations, "Increase your leverage multiplier by balancing territory control and mission completion")
	}

	s.send("analysis_result", map[string]interface{}{
		"resource_efficiency": resourcePerTerritory,
		"mission_efficiency":  missionRate,
		"leverage_efficiency": leverageEfficiency,
		"recommendations":     recommendations,
	})
	return nil
}

func handleTerritoryAction(s *Session, payload json.RawMessage) *GameError {
	var req struct {
		TerritoryID string `json:"territory_id"`
		Action      string `json:"action"`
	}
	if err := decode(payload, &req); err != nil {
		return err
	}

	worldLock.Lock()
	var pos interface{}
	if t := findTerritory(req.TerritoryID); t != nil {
		pos = t.Position
	}
	worldLock.Unlock()

	s.send("territory_action_result", map[string]interface{}{
		"territory_id": req.TerritoryID,
		"action":       req.Action,
		"position":     pos,
		"message":      "Action '" + req.Action + "' received for " + req.TerritoryID,
		"success":      true,
	})
	pushState(s)
	return nil
}

func handleTutorialSkipped(s *Session, _ json.RawMessage) *GameError {
	InfoLog.Printf("Tutorial skipped by %s", s.PlayerID)
	s.send("tutorial_skipped_ack", map[string]interface{}{
		"success": true,
		"message": "Tutorial skipped successfully",
	})
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	sessionLock.RLock()
	connected := len(sessions)
	sessionLock.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":         "ok",
		"uuid":           ServerUUID,
		"sessions":       connected,
		"active_battles": activeBattleCount(),
		"timestamp":      time.Now().Unix(),
	})
}
