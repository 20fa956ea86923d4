package persist

import (
	"context"
	"fmt"
	"time"
)

// JournalEntry records one applied outliner edit.
type JournalEntry struct {
	Action  string // drag action or "rename-folder"
	Target  string // drop target key, or the destination folder
	Items   int
	Message string
}

// JournalRow is a stored JournalEntry.
type JournalRow struct {
	ID        int64
	CreatedAt time.Time
	JournalEntry
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// Append writes a batch of entries for world in a single transaction.
func (r *JournalRepo) Append(ctx context.Context, world string, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO edit_journal (world, action, target, items, message)
			 VALUES ($1, $2, $3, $4, $5)`,
			world, e.Action, e.Target, e.Items, e.Message,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Recent returns the newest entries of world, newest first.
func (r *JournalRepo) Recent(ctx context.Context, world string, limit int) ([]JournalRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, created_at, action, target, items, message
		 FROM edit_journal WHERE world = $1 ORDER BY id DESC LIMIT $2`,
		world, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []JournalRow
	for rows.Next() {
		var j JournalRow
		if err := rows.Scan(&j.ID, &j.CreatedAt, &j.Action, &j.Target, &j.Items, &j.Message); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
