package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edurelay/feishu-class-relay/internal/biz/domain"
	"github.com/edurelay/feishu-class-relay/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// rosterRepo persists the roster aggregate in SQLite.
type rosterRepo struct {
	db *sql.DB
}

// NewRosterRepo opens (creating if needed) the roster database.
func NewRosterRepo(dbPath string) (repo.RosterRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS participants (
			id INTEGER PRIMARY KEY,
			external_id TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			surname TEXT NOT NULL,
			grp TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create participants table: %w", err)
	}

	// Single-row table holding the next id to issue
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS roster_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_id INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create roster_meta table: %w", err)
	}

	return &rosterRepo{db: db}, nil
}

// Load reads the whole aggregate. A fresh database (no meta row) yields an
// empty roster with the counter at 1; any read failure is a storage error,
// never silently treated as an empty roster.
func (r *rosterRepo) Load(ctx context.Context) (*domain.Roster, error) {
	roster := domain.NewRoster()

	err := r.db.QueryRowContext(ctx, `SELECT next_id FROM roster_meta WHERE id = 1`).Scan(&roster.NextID)
	if err == sql.ErrNoRows {
		return roster, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roster counter: %v: %w", err, domain.ErrStorageUnavailable)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, external_id, name, surname, grp
		FROM participants
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %v: %w", err, domain.ErrStorageUnavailable)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Name, &p.Surname, &p.Group); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %v: %w", err, domain.ErrStorageUnavailable)
		}
		roster.Participants = append(roster.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %v: %w", err, domain.ErrStorageUnavailable)
	}

	return roster, nil
}

// Save rewrites the aggregate in one transaction, so a reader never observes
// a partial write.
func (r *rosterRepo) Save(ctx context.Context, roster *domain.Roster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %v: %w", err, domain.ErrStorageUnavailable)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants`); err != nil {
		return fmt.Errorf("failed to clear participants: %v: %w", err, domain.ErrStorageUnavailable)
	}

	for _, p := range roster.Participants {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO participants (id, external_id, name, surname, grp)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, p.ExternalID, p.Name, p.Surname, p.Group)
		if err != nil {
			return fmt.Errorf("failed to insert participant %d: %v: %w", p.ID, err, domain.ErrStorageUnavailable)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO roster_meta (id, next_id) VALUES (1, ?)
	`, roster.NextID)
	if err != nil {
		return fmt.Errorf("failed to save roster counter: %v: %w", err, domain.ErrStorageUnavailable)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %v: %w", err, domain.ErrStorageUnavailable)
	}
	return nil
}

// Close closes the database connection.
func (r *rosterRepo) Close() error {
	return r.db.Close()
}
