package game

import "testing"

func TestResearchCostRamp(t *testing.T) {
	if got := ResearchCost(TechResourceEfficiency, 0); got != 100 {
		t.Errorf("level 0 cost = %d, want 100", got)
	}
	if got := ResearchCost(TechResourceEfficiency, 2); got != 900 {
		t.Errorf("level 2 cost = %d, want 900", got)
	}
	if got := ResearchCost(TechTerritoryControl, 1); got != 1000 {
		t.Errorf("territory_control level 1 cost = %d, want 1000", got)
	}
	if got := ResearchCost(Tech("bogus"), 3); got != 0 {
		t.Errorf("unknown branch cost = %d, want 0", got)
	}
}

func TestAchievementLevel(t *testing.T) {
	cases := []struct {
		kind  string
		value int
		want  int
	}{
		{"resource_master", 999, 0},
		{"resource_master", 1000, 1},
		{"resource_master", 100000, 5},
		{"territory_expander", 4, 2},
		{"combat_expert", 50, 2},
		{"mission_specialist", 0, 0},
		{"unknown_kind", 500, 0},
	}
	for _, tc := range cases {
		if got := AchievementLevel(tc.kind, tc.value); got != tc.want {
			t.Errorf("AchievementLevel(%s, %d) = %d, want %d", tc.kind, tc.value, got, tc.want)
		}
	}
}
