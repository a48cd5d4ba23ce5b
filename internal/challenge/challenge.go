// Package challenge provides the fixed challenge catalog and the
// deterministic challenge-of-the-day selection.
package challenge

import (
	"errors"
	"hash/fnv"
)

// ErrEmptyCatalog indicates selection was attempted over an empty catalog.
var ErrEmptyCatalog = errors.New("challenge catalog is empty")

// Challenge is one entry of the fixed catalog. Challenges are global, not
// user-specific; ids match the seeded challenges table.
type Challenge struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CarbonValue int    `json:"carbon_value"`
	Category    string `json:"category"`
}

// Catalog is the fixed, ordered set of daily challenges.
// Order matters: ForDate indexes into it by hash, so reordering entries
// changes which challenge a date maps to.
var Catalog = []Challenge{
	{ID: 1, Title: "Use Public Transport", Description: "Take the bus or train instead of driving", CarbonValue: 5, Category: "Transport"},
	{ID: 2, Title: "Plant a Tree", Description: "Plant a tree in your area", CarbonValue: 10, Category: "Nature"},
	{ID: 3, Title: "Reduce Meat", Description: "Go vegetarian for one meal", CarbonValue: 3, Category: "Diet"},
	{ID: 4, Title: "Save Water", Description: "Take a shorter shower", CarbonValue: 2, Category: "Water"},
	{ID: 5, Title: "Use Reusable Bags", Description: "Shop with reusable bags", CarbonValue: 1, Category: "Waste"},
}

// ForDate selects the challenge of the day for a calendar date (YYYY-MM-DD).
//
// The mapping is a pure function of the date string: FNV-1a of the date,
// reduced modulo the catalog size. No randomness and no stored seed, so every
// caller — and every process restart — sees the same challenge on a given day.
func ForDate(date string) (Challenge, error) {
	return forDate(date, Catalog)
}

// forDate is the catalog-parameterized selection, split out for testing.
func forDate(date string, catalog []Challenge) (Challenge, error) {
	if len(catalog) == 0 {
		return Challenge{}, ErrEmptyCatalog
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(date)) // fnv Write never fails
	idx := int(h.Sum32() % uint32(len(catalog)))

	return catalog[idx], nil
}

// ByID looks up a catalog entry by id. Returns false for unknown ids.
func ByID(id int) (Challenge, bool) {
	for _, c := range Catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}
