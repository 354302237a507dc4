package persist

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrWinnerNotFound = errors.New("winner not found")

// WinnerRow represents a row from the winners table.
type WinnerRow struct {
	ID         int64
	BallID     int64
	Name       string
	Palette    string
	Present    bool
	RevealedAt time.Time
}

// HistoryEntry groups one calendar day of winners, oldest first.
type HistoryEntry struct {
	Date    time.Time // midnight, in the location the history was built for
	Winners []WinnerRow
}

// WinnerRepo stores revealed winners.
type WinnerRepo struct {
	db *DB
}

func NewWinnerRepo(db *DB) *WinnerRepo {
	return &WinnerRepo{db: db}
}

// Record inserts a batch of winners in one transaction and fills in their
// IDs.
func (r *WinnerRepo) Record(ctx context.Context, rows []WinnerRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("winners begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range rows {
		w := &rows[i]
		if w.RevealedAt.IsZero() {
			w.RevealedAt = time.Now()
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO winners (ball_id, name, palette, present, revealed_at)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			w.BallID, w.Name, w.Palette, w.Present, w.RevealedAt,
		).Scan(&w.ID); err != nil {
			return fmt.Errorf("winners insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByDate returns the winners revealed on the calendar day of day, in
// day's location.
func (r *WinnerRepo) ListByDate(ctx context.Context, day time.Time) ([]WinnerRow, error) {
	start := startOfDay(day)
	return r.list(ctx, start, start.AddDate(0, 0, 1))
}

// History returns the winners of the last days calendar days up to and
// including now's, grouped per day. Days without winners are omitted.
func (r *WinnerRepo) History(ctx context.Context, days int, now time.Time) ([]HistoryEntry, error) {
	if days < 1 {
		days = 1
	}
	end := startOfDay(now).AddDate(0, 0, 1)
	rows, err := r.list(ctx, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}
	return groupByDate(rows, now.Location()), nil
}

func (r *WinnerRepo) list(ctx context.Context, from, to time.Time) ([]WinnerRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, ball_id, name, palette, present, revealed_at
		 FROM winners
		 WHERE revealed_at >= $1 AND revealed_at < $2
		 ORDER BY revealed_at, id`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("winners query: %w", err)
	}
	defer rows.Close()

	var result []WinnerRow
	for rows.Next() {
		var w WinnerRow
		if err := rows.Scan(&w.ID, &w.BallID, &w.Name, &w.Palette, &w.Present, &w.RevealedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// MarkPresent records whether a drawn winner was there to claim the prize.
func (r *WinnerRepo) MarkPresent(ctx context.Context, id int64, present bool) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE winners SET present = $2 WHERE id = $1`, id, present)
	if err != nil {
		return fmt.Errorf("winners update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWinnerNotFound
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// groupByDate buckets rows ordered by reveal time into calendar days of loc.
func groupByDate(rows []WinnerRow, loc *time.Location) []HistoryEntry {
	var out []HistoryEntry
	for _, w := range rows {
		day := startOfDay(w.RevealedAt.In(loc))
		if n := len(out); n > 0 && out[n-1].Date.Equal(day) {
			out[n-1].Winners = append(out[n-1].Winners, w)
			continue
		}
		out = append(out, HistoryEntry{Date: day, Winners: []WinnerRow{w}})
	}
	return out
}
