package game

// --- Research Tree ---

// Tech enumerates the research branches. Each branch is a row in an
// explicit table; costs and bonuses are small pure formulas over its
// base values.
type Tech string

const (
	TechResourceEfficiency Tech = "resource_efficiency"
	TechDefenseSystems     Tech = "defense_systems"
	TechEnergyManipulation Tech = "energy_manipulation"
	TechTerritoryControl   Tech = "territory_control"
)

type ResearchSpec struct {
	MaxLevel  int
	BaseCost  int
	BonusStep float64
}

var ResearchTree = map[Tech]ResearchSpec{
	TechResourceEfficiency: {MaxLevel: 5, BaseCost: 100, BonusStep: 0.1},
	TechDefenseSystems:     {MaxLevel: 5, BaseCost: 150, BonusStep: 0.15},
	TechEnergyManipulation: {MaxLevel: 5, BaseCost: 200, BonusStep: 0.2},
	TechTerritoryControl:   {MaxLevel: 5, BaseCost: 250, BonusStep: 0.25},
}

// ResearchCost is base * (level+1)^2, a quadratic ramp per branch.
func ResearchCost(tech Tech, level int) int {
	spec, ok := ResearchTree[tech]
	if !ok {
		return 0
	}
	return spec.BaseCost * (level + 1) * (level + 1)
}

func ResearchBonus(tech Tech, level int) float64 {
	spec, ok := ResearchTree[tech]
	if !ok {
		return 0
	}
	return spec.BonusStep * float64(level+1)
}

// --- Achievements ---

type AchievementSpec struct {
	Levels      []int
	Description string
}

var AchievementTypes = map[string]AchievementSpec{
	"resource_master":    {Levels: []int{1000, 5000, 10000, 50000, 100000}, Description: "Total resources harvested"},
	"territory_expander": {Levels: []int{1, 3, 5, 10, 15}, Description: "Territories controlled simultaneously"},
	"combat_expert":      {Levels: []int{10, 50, 100, 500, 1000}, Description: "Enemies defeated"},
	"mission_specialist": {Levels: []int{10, 50, 100, 500, 1000}, Description: "Missions completed"},
}

// AchievementLevel reports how many tiers of the named achievement the
// given stat value has cleared.
func AchievementLevel(kind string, value int) int {
	spec, ok := AchievementTypes[kind]
	if !ok {
		return 0
	}
	level := 0
	for _, threshold := range spec.Levels {
		if value >= threshold {
			level++
		}
	}
	return level
}
