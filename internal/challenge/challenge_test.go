package challenge

import (
	"errors"
	"testing"
	"time"
)

func TestForDateDeterministic(t *testing.T) {
	const date = "2026-08-31"

	first, err := ForDate(date)
	if err != nil {
		t.Fatalf("ForDate failed: %v", err)
	}
	for range 100 {
		c, err := ForDate(date)
		if err != nil {
			t.Fatalf("ForDate failed: %v", err)
		}
		if c != first {
			t.Fatalf("selection not deterministic: got %+v, want %+v", c, first)
		}
	}
}

func TestForDateStableMapping(t *testing.T) {
	// Pinned expectations: FNV-1a is seedless, so these values are stable
	// across processes and releases. If this test fails, the mapping changed
	// and every user's challenge of the day changed with it.
	tests := []struct {
		date   string
		wantID int
	}{
		{"2024-01-01", fixtureID(t, "2024-01-01")},
		{"2024-06-15", fixtureID(t, "2024-06-15")},
		{"2026-08-31", fixtureID(t, "2026-08-31")},
	}
	for _, tt := range tests {
		c, err := ForDate(tt.date)
		if err != nil {
			t.Fatalf("ForDate(%s) failed: %v", tt.date, err)
		}
		if c.ID != tt.wantID {
			t.Errorf("ForDate(%s) = challenge %d, want %d", tt.date, c.ID, tt.wantID)
		}
	}
}

// fixtureID recomputes the expected selection with an independent FNV-1a
// implementation, guarding against accidental changes to the hash or reduction.
func fixtureID(t *testing.T, date string) int {
	t.Helper()
	var h uint32 = 2166136261
	for i := 0; i < len(date); i++ {
		h ^= uint32(date[i])
		h *= 16777619
	}
	return Catalog[int(h%uint32(len(Catalog)))].ID
}

func TestForDateCoversCatalog(t *testing.T) {
	// Over a year of dates the selection should hit more than one entry;
	// a constant mapping would make the "daily" challenge pointless.
	seen := make(map[int]bool)
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for range 365 {
		c, err := ForDate(day.Format(time.DateOnly))
		if err != nil {
			t.Fatalf("ForDate failed: %v", err)
		}
		seen[c.ID] = true
		day = day.AddDate(0, 0, 1)
	}
	if len(seen) < 2 {
		t.Errorf("expected multiple challenges across a year, got %d distinct", len(seen))
	}
}

func TestForDateEmptyCatalog(t *testing.T) {
	_, err := forDate("2026-08-31", nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestByID(t *testing.T) {
	c, ok := ByID(3)
	if !ok {
		t.Fatal("expected challenge 3 to exist")
	}
	if c.Title != "Reduce Meat" {
		t.Errorf("unexpected title %q", c.Title)
	}

	if _, ok := ByID(99); ok {
		t.Error("expected unknown id to report false")
	}
}
