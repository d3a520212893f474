package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/grichgrich/honey/pkg/core"
)

// --- World Generation ---

// planetResources derives a planet's deposits from the genesis seed:
// the same seed always yields the same universe, so a reloaded server
// regenerates identical worlds when no snapshot exists.
func planetResources(planetID string, low, high int) []Resource {
	digest := core.HashBytes([]byte(GenesisSeed + "-" + planetID))

	count := 1 + int(digest[0])%3
	out := make([]Resource, 0, count)
	span := high - low
	for i := 0; i < count; i++ {
		rt := ResourceTypes[int(digest[1+i])%len(ResourceTypes)]
		amount := low + int(digest[4+i])*span/255
		out = append(out, Resource{Type: rt, Amount: amount})
	}
	return out
}

func generateTerritories() []*Territory {
	out := make([]*Territory, 0, len(TerritoryNames))
	for i, name := range TerritoryNames {
		id := fmt.Sprintf("territory-%d", i)
		out = append(out, &Territory{
			ID:        id,
			Name:      name,
			Resources: planetResources(id, 100, 1000),
			Position: Vec3{
				X: rand.Float64()*40 - 20,
				Y: rand.Float64()*40 - 20,
				Z: rand.Float64()*40 - 20,
			},
		})
	}
	return out
}

// generateUniverse builds a single galaxy: a few systems, each with a
// sun and an orbit ring of planets.
func generateUniverse() *Universe {
	sunColors := []string{"#ffff66", "#66aaff", "#ff8866"}

	systems := make([]*System, 0, 3)
	for s := 0; s < 3; s++ {
		sysID := fmt.Sprintf("system-%d", s)
		sysPos := Vec3{
			X: rand.Float64()*80 - 40,
			Y: rand.Float64()*20 - 10,
			Z: rand.Float64()*80 - 40,
		}

		planetCount := 4 + rand.Intn(3)
		planets := make([]*Planet, 0, planetCount)
		for p := 0; p < planetCount; p++ {
			orbitRadius := 2.5 + float64(p)*1.5 + (rand.Float64()*0.6 - 0.2)
			angle := rand.Float64() * 2 * math.Pi
			id := fmt.Sprintf("planet-%s-%d", sysID, p)
			planets = append(planets, &Planet{
				ID:          id,
				Name:        fmt.Sprintf("P%d of SYSTEM-%d", p+1, s),
				Defense:     rand.Intn(5),
				Population:  20 + rand.Intn(81),
				Resources:   planetResources(id, 80, 600),
				SystemID:    sysID,
				OrbitRadius: orbitRadius,
				OrbitAngle:  angle,
				Position: Vec3{
					X: sysPos.X + math.Cos(angle)*orbitRadius,
					Y: sysPos.Y + (rand.Float64() - 0.5),
					Z: sysPos.Z + math.Sin(angle)*orbitRadius,
				},
			})
		}

		systems = append(systems, &System{
			ID:       sysID,
			Position: sysPos,
			Sun: Sun{
				Color:     sunColors[rand.Intn(len(sunColors))],
				Intensity: math.Round((0.8+rand.Float64()*0.8)*100) / 100,
			},
			Planets: planets,
		})
	}

	return &Universe{Galaxies: []*Galaxy{{ID: "galaxy-0", Systems: systems}}}
}

// initBots seeds two AI factions and hands them a few planets so the
// early game has defended targets. Caller holds worldLock.
func initBots() {
	bots = nil
	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("bot_%d", i+1)
		bots = append(bots, id)
		characters[id] = &Character{
			Name:      fmt.Sprintf("AI Swarm %d", i+1),
			Faction:   "Eufloria Swarm",
			Level:     1,
			Resources: emptyResources(),
		}
	}

	all := allPlanets()
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	n := min(4, len(all))
	for i := 0; i < n; i++ {
		all[i].ControlledBy = bots[i%len(bots)]
	}

	// Mirror every planet into the flat territory list.
	for _, p := range all {
		mirrorPlanet(p)
	}
}

func emptyResources() map[string]int {
	out := make(map[string]int, len(ResourceTypes))
	for _, rt := range ResourceTypes {
		out[rt] = 0
	}
	return out
}

// --- Lookups (caller holds worldLock) ---

func allPlanets() []*Planet {
	var out []*Planet
	for _, g := range universe.Galaxies {
		for _, s := range g.Systems {
			out = append(out, s.Planets...)
		}
	}
	return out
}

func findPlanet(id string) *Planet {
	for _, g := range universe.Galaxies {
		for _, s := range g.Systems {
			for _, p := range s.Planets {
				if p.ID == id {
					return p
				}
			}
		}
	}
	return nil
}

func findSystem(id string) *System {
	for _, g := range universe.Galaxies {
		for _, s := range g.Systems {
			if s.ID == id {
				return s
			}
		}
	}
	return nil
}

func findTerritory(id string) *Territory {
	for _, t := range territories {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func playerTerritories(playerID string) []*Territory {
	var out []*Territory
	for _, t := range territories {
		if t.ControlledBy == playerID {
			out = append(out, t)
		}
	}
	return out
}

// mirrorPlanet keeps the flat territory list in sync with a planet's
// ownership, defense and resources.
func mirrorPlanet(p *Planet) {
	if t := findTerritory(p.ID); t != nil {
		t.ControlledBy = p.ControlledBy
		t.Defense = p.Defense
		t.Resources = p.Resources
		t.Position = p.Position
		return
	}
	territories = append(territories, &Territory{
		ID:           p.ID,
		Name:         p.Name,
		ControlledBy: p.ControlledBy,
		Defense:      p.Defense,
		Resources:    p.Resources,
		Position:     p.Position,
	})
}

// ensureHomePlanet guarantees the player controls at least one planet,
// assigning the first unclaimed one if needed. Caller holds worldLock.
func ensureHomePlanet(playerID string) {
	for _, p := range allPlanets() {
		if p.ControlledBy == playerID {
			return
		}
	}
	for _, p := range allPlanets() {
		if p.ControlledBy == "" {
			p.ControlledBy = playerID
			if p.Defense < 3 {
				p.Defense = 3
			}
			mirrorPlanet(p)
			return
		}
	}
}

// starterTerritories are granted to every first-time player before the
// initial state broadcast.
func starterTerritories(playerID string) []*Territory {
	return []*Territory{
		{
			ID:           fmt.Sprintf("territory-starter-alpha-%s", playerID),
			Name:         "Alpha Outpost",
			ControlledBy: playerID,
			Defense:      1,
			Position:     Vec3{},
			Resources: []Resource{
				{Type: "energy", Amount: 50, MaxCapacity: 200},
				{Type: "minerals", Amount: 25, MaxCapacity: 100},
			},
		},
		{
			ID:           fmt.Sprintf("territory-starter-beta-%s", playerID),
			Name:         "Beta Research Station",
			ControlledBy: playerID,
			Defense:      1,
			Position:     Vec3{X: 5, Y: 2, Z: -3},
			Resources: []Resource{
				{Type: "crystals", Amount: 10, MaxCapacity: 50},
				{Type: "energy", Amount: 30, MaxCapacity: 150},
			},
		},
	}
}

// provisionPlayer creates the default character, starter territories,
// missions, leverage profile and a home planet for a never-seen
// identity. Caller holds worldLock.
func provisionPlayer(playerID string) {
	if _, exists := characters[playerID]; exists {
		return
	}
	InfoLog.Printf("Auto-creating character for %s", playerID)

	resources := make(map[string]int, len(StarterResources))
	for rt, amount := range StarterResources {
		resources[rt] = amount
	}
	characters[playerID] = &Character{
		Name:      fmt.Sprintf("Commander %d", len(characters)+1),
		Faction:   "United Earth Forces",
		Level:     1,
		Resources: resources,
	}
	missions[playerID] = generateMissions(1)
	profileFor(playerID)

	territories = append(territories, starterTerritories(playerID)...)
	ensureHomePlanet(playerID)
}
