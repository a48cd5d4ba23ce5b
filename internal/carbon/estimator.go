// Package carbon estimates carbon savings from free-text activity
// descriptions.
//
// The estimate is a deliberate heuristic, not a measurement: an ordered table
// of keyword rules is scanned in priority order and the first matching rule's
// score wins. Multi-keyword messages do not sum — the rule order is the
// tie-break and is part of the documented contract.
package carbon

import "strings"

// rule maps a set of trigger keywords to a carbon score.
type rule struct {
	keywords []string
	score    int
}

// rules is the ordered estimation table. Earlier rules win when a message
// mentions keywords from several rules, so changing the order changes
// observable results.
var rules = []rule{
	{keywords: []string{"bottle", "plastic"}, score: 1},
	{keywords: []string{"cycle", "bike"}, score: 3},
	{keywords: []string{"tree"}, score: 2},
	{keywords: []string{"light"}, score: 1},
	{keywords: []string{"bus", "train"}, score: 2},
	{keywords: []string{"meat"}, score: 3},
}

// Estimate returns the approximate carbon saving for a message.
// Matching is case-insensitive substring search; no match returns 0.
func Estimate(message string) int {
	msg := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(msg, kw) {
				return r.score
			}
		}
	}
	return 0
}
