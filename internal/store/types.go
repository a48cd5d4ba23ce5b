package store

import "time"

// User is a row in the users table. The username is the natural key:
// case-sensitive, unique, immutable once created.
type User struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	TotalCarbonSaved  float64   `json:"total_carbon_saved"`
	Streak            int       `json:"streak"`
	LastChallengeDate *string   `json:"last_challenge_date"`
	CreatedAt         time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the carbon-savings ranking.
type LeaderboardEntry struct {
	Username         string  `json:"username"`
	TotalCarbonSaved float64 `json:"total_carbon_saved"`
	Streak           int     `json:"streak"`
}

// Reminder is a habit reminder belonging to one user. Reminders are
// soft-disabled via Enabled, never deleted. LastReminded is reserved for a
// future scheduler and is not populated by the service.
type Reminder struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Habit        string     `json:"habit"`
	Frequency    string     `json:"frequency"`
	Enabled      bool       `json:"enabled"`
	LastReminded *time.Time `json:"last_reminded"`
	CreatedAt    time.Time  `json:"created_at"`
}
