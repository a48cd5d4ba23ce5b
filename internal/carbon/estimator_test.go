package carbon

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
	}{
		{"bike", "I rode my bike", 3},
		{"cycle", "cycled to the office", 3},
		{"plastic bottle", "I used a plastic bottle", 1},
		{"tree", "planted a tree today", 2},
		{"light", "turned off the lights", 1},
		{"bus", "took the bus", 2},
		{"train", "caught a train home", 2},
		{"meat", "skipped meat at lunch", 3},
		{"no match", "hello", 0},
		{"empty", "", 0},
		{"case insensitive", "I Rode My BIKE", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.message); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}

// TestEstimatePriorityOrder pins the first-match-wins behavior for messages
// that mention keywords from several rules. The rule table is ordered
// bottle/plastic, cycle/bike, tree, light, bus/train, meat — the earliest
// rule with any matching keyword decides the score.
func TestEstimatePriorityOrder(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
	}{
		// bike (rule 2) appears before meat (rule 6) in the table,
		// so cycling wins even though both keywords are present.
		{"meat and bike", "I ate meat and rode my bike", 3},
		// bottle (rule 1) beats bike (rule 2).
		{"bottle and bike", "refilled my bottle before the bike ride", 1},
		// tree (rule 3) beats meat (rule 6).
		{"tree and meat", "planted a tree then ate meat", 2},
		// bottle (rule 1) beats everything.
		{"all keywords", "bottle bike tree light bus meat", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.message); got != tt.want {
				t.Errorf("Estimate(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}
