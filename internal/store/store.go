package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/walink/internal/types"
)

// Store keeps a local history of link runs and bot list snapshots.
// Credentials and codes are never written.
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS link_runs (
		id TEXT PRIMARY KEY,
		method TEXT NOT NULL,
		phone TEXT,
		status TEXT NOT NULL,
		session TEXT,
		message TEXT,
		screenshot_path TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bot_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bot_id TEXT NOT NULL,
		sent_count INTEGER NOT NULL,
		connection_status TEXT NOT NULL,
		synced_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_link_runs_started_at ON link_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_bot_snapshots_synced_at ON bot_snapshots(synced_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records the outcome of a link run
func (s *Store) SaveRun(o *types.Outcome) error {
	_, err := s.db.Exec(`
		INSERT INTO link_runs (id, method, phone, status, session, message,
			screenshot_path, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			session = excluded.session,
			message = excluded.message,
			screenshot_path = excluded.screenshot_path,
			finished_at = excluded.finished_at
	`, o.RunID, o.Method, o.Phone, string(o.Status), o.Session, o.Message,
		o.ScreenshotPath, o.StartedAt.UTC(), o.FinishedAt.UTC())

	return err
}

// RecentRuns returns the latest runs, newest first
func (s *Store) RecentRuns(limit int) ([]types.Outcome, error) {
	rows, err := s.db.Query(`
		SELECT id, method, phone, status, session, message, screenshot_path,
			started_at, finished_at
		FROM link_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var status string

		err := rows.Scan(
			&o.RunID, &o.Method, &o.Phone, &status, &o.Session, &o.Message,
			&o.ScreenshotPath, &o.StartedAt, &o.FinishedAt,
		)
		if err != nil {
			return nil, err
		}

		o.Status = types.Status(status)
		runs = append(runs, o)
	}
	return runs, rows.Err()
}

// SaveBots records one snapshot of the bot list
func (s *Store) SaveBots(bots []types.Bot, syncedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, b := range bots {
		_, err := tx.Exec(`
			INSERT INTO bot_snapshots (bot_id, sent_count, connection_status, synced_at)
			VALUES (?, ?, ?, ?)
		`, b.ID, b.SentCount, b.Status, syncedAt.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LatestBots returns the most recent snapshot and when it was taken.
// An empty store returns no bots and a zero time.
func (s *Store) LatestBots() ([]types.Bot, time.Time, error) {
	var latest sql.NullString
	if err := s.db.QueryRow(`SELECT MAX(synced_at) FROM bot_snapshots`).Scan(&latest); err != nil {
		return nil, time.Time{}, err
	}
	if !latest.Valid {
		return nil, time.Time{}, nil
	}

	rows, err := s.db.Query(`
		SELECT bot_id, sent_count, connection_status, synced_at
		FROM bot_snapshots
		WHERE synced_at = (SELECT MAX(synced_at) FROM bot_snapshots)
		ORDER BY id
	`)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var bots []types.Bot
	var syncedAt time.Time
	for rows.Next() {
		var b types.Bot
		if err := rows.Scan(&b.ID, &b.SentCount, &b.Status, &syncedAt); err != nil {
			return nil, time.Time{}, err
		}
		bots = append(bots, b)
	}
	return bots, syncedAt, rows.Err()
}
