// Package store implements the durable carbon-savings ledger on SQLite.
//
// The ledger holds users, the append-only carbon log, the challenge catalog
// and per-user completions, habit reminders, and the challenge-of-day binding.
// Every operation opens its own statement/transaction scope and commits before
// returning; no transaction spans more than one logical operation.
//
// Invariant: a user's total_carbon_saved always equals the sum of their
// carbon_log amounts. LogCarbon couples the insert and the increment in one
// transaction to keep a crash from desynchronizing the two.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// DefaultLeaderboardLimit caps the leaderboard when the caller passes no limit.
const DefaultLeaderboardLimit = 10

// Store provides ledger operations over an open SQLite database.
//
// Store is safe for concurrent use by multiple goroutines; SQLite serializes
// writers and the busy_timeout pragma makes them queue rather than fail.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store. The database must already be opened and migrated
// (see Open and Migrate).
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// GetUser looks up a user by username. Returns ErrNotFound on miss.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, total_carbon_saved, streak, last_challenge_date, created_at
		 FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.TotalCarbonSaved, &u.Streak, &u.LastChallengeDate, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", username, err)
	}
	return &u, nil
}

// CreateUser inserts a new user and returns its id.
// A duplicate username is not an error: it returns (0, nil), the "no id
// assigned" sentinel. Callers doing get-then-create recover the winner's id
// with a follow-up GetUser (or use GetOrCreateUser, which does it for them).
func (s *Store) CreateUser(ctx context.Context, username, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email) VALUES (?, ?)`, username, email)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Debug("duplicate username on create", "username", username)
			return 0, nil
		}
		return 0, fmt.Errorf("creating user %q: %w", username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new user id: %w", err)
	}
	return id, nil
}

// GetOrCreateUser resolves a username to a user id, creating the row on miss.
// Two concurrent callers can both miss and both attempt the create; the UNIQUE
// constraint lets exactly one insert land, and the loser re-fetches the
// winner's row instead of dropping the write.
func (s *Store) GetOrCreateUser(ctx context.Context, username string) (int64, error) {
	u, err := s.GetUser(ctx, username)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	id, err := s.CreateUser(ctx, username, "")
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}

	// Lost the creation race; the winner's row exists now.
	u, err = s.GetUser(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("resolving user %q after lost create race: %w", username, err)
	}
	return u.ID, nil
}

// LogCarbon appends a carbon_log entry and increments the user's running
// total in a single transaction. Either both writes land or neither does.
func (s *Store) LogCarbon(ctx context.Context, userID int64, amount float64, activity string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning carbon log transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO carbon_log (user_id, carbon_saved, activity) VALUES (?, ?, ?)`,
		userID, amount, activity); err != nil {
		return fmt.Errorf("inserting carbon log entry: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET total_carbon_saved = total_carbon_saved + ? WHERE id = ?`,
		amount, userID)
	if err != nil {
		return fmt.Errorf("updating carbon total: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user id %d: %w", userID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing carbon log: %w", err)
	}
	return nil
}

// Leaderboard returns the top users ranked by total carbon saved, descending.
// Ties break on insertion order (ascending id). limit <= 0 uses the default.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT username, total_carbon_saved, streak FROM users
		 ORDER BY total_carbon_saved DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.TotalCarbonSaved, &e.Streak); err != nil {
			return nil, fmt.Errorf("scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating leaderboard rows: %w", err)
	}
	return entries, nil
}

// SetChallengeOfDay upserts the challenge binding for the given date
// (YYYY-MM-DD). At most one row exists per date; re-setting replaces it.
func (s *Store) SetChallengeOfDay(ctx context.Context, date string, challengeID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO challenge_of_day (date, challenge_id) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET challenge_id = excluded.challenge_id`,
		date, challengeID)
	if err != nil {
		return fmt.Errorf("setting challenge of day for %s: %w", date, err)
	}
	return nil
}

// ChallengeOfDay returns the challenge id bound to the given date.
// Returns ErrNotFound when no binding exists.
func (s *Store) ChallengeOfDay(ctx context.Context, date string) (int, error) {
	var id int
	err := s.db.QueryRowContext(ctx,
		`SELECT challenge_id FROM challenge_of_day WHERE date = ?`, date).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("challenge of day for %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("getting challenge of day for %s: %w", date, err)
	}
	return id, nil
}

// CompleteChallenge records that a user completed a challenge.
func (s *Store) CompleteChallenge(ctx context.Context, userID int64, challengeID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_challenges (user_id, challenge_id) VALUES (?, ?)`,
		userID, challengeID)
	if err != nil {
		return fmt.Errorf("recording challenge completion: %w", err)
	}
	return nil
}

// AddReminder adds an enabled habit reminder for a user.
// Frequency is a free-text label ("daily", "weekly", ...), not validated.
func (s *Store) AddReminder(ctx context.Context, userID int64, habit, frequency string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (user_id, habit, frequency, enabled) VALUES (?, ?, ?, 1)`,
		userID, habit, frequency)
	if err != nil {
		return fmt.Errorf("adding reminder: %w", err)
	}
	return nil
}

// UserReminders returns the enabled reminders for a user, oldest first.
func (s *Store) UserReminders(ctx context.Context, userID int64) ([]Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, habit, frequency, enabled, last_reminded, created_at
		 FROM reminders WHERE user_id = ? AND enabled = 1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Habit, &r.Frequency, &r.Enabled, &r.LastReminded, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminder rows: %w", err)
	}
	return reminders, nil
}

// ToggleReminder enables or disables a reminder. Reminders are never deleted.
func (s *Store) ToggleReminder(ctx context.Context, reminderID int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET enabled = ? WHERE id = ?`, enabled, reminderID)
	if err != nil {
		return fmt.Errorf("toggling reminder %d: %w", reminderID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reminder %d: %w", reminderID, ErrNotFound)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
}
