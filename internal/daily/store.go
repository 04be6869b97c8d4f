// internal/daily/store.go
//
// SQLite-backed results store for the Daily Challenge.
// One row per user per date (UNIQUE(user_id, date)); the leaderboard orders
// by elapsed time, then attempts.

package daily

import (
	"context"
	"database/sql"
)

// Result is a single user's finished daily game. Losses are recorded too,
// so "already played" holds for the rest of the day either way; only solved
// games reach the leaderboard.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int    `json:"elapsedMs"`
	Solved    bool   `json:"solved"`
}

// Store wraps the daily_results table.
type Store struct{ db *sql.DB }

// NewStore binds the store to a database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the user has a recorded result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished daily game.
// Respects UNIQUE(user_id, date); a duplicate insert is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, attempts, elapsed_ms, solved)
		 VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.Attempts, r.ElapsedMs, r.Solved,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard fetches the top solved results for a date.
// Ordered by elapsed time ASC, then attempts ASC, then created_at ASC.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, attempts, elapsed_ms
		 FROM daily_results
		 WHERE date=? AND solved=1
		 ORDER BY elapsed_ms ASC, attempts ASC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
