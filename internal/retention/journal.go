package retention

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ytget/yt-downloader-bot/internal/platform"
	_ "modernc.org/sqlite"
)

// Entry is one pending deletion
type Entry struct {
	Path     string
	DeleteAt time.Time
}

// Journal persists pending deletion deadlines
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Forget(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// SQLiteJournal stores deadlines in a SQLite database
type SQLiteJournal struct {
	db *sql.DB
}

// OpenJournal opens or creates the journal database at path
func OpenJournal(path string) (*SQLiteJournal, error) {
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, err
	}

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deletions (
		path TEXT NOT NULL,
		delete_at INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		PRIMARY KEY (path, delete_at)
	);
	CREATE INDEX IF NOT EXISTS idx_deletions_delete_at ON deletions(delete_at);
	`
	_, err := j.db.ExecContext(ctx, schema)
	return err
}

// Record implements Journal. Recording the same entry twice is a no-op.
func (j *SQLiteJournal) Record(ctx context.Context, entry Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO deletions (path, delete_at, recorded_at) VALUES (?, ?, ?)
		 ON CONFLICT (path, delete_at) DO NOTHING`,
		entry.Path, entry.DeleteAt.UnixMilli(), time.Now().UnixMilli(),
	)
	return err
}

// Forget implements Journal
func (j *SQLiteJournal) Forget(ctx context.Context, entry Entry) error {
	_, err := j.db.ExecContext(ctx,
		`DELETE FROM deletions WHERE path = ? AND delete_at = ?`,
		entry.Path, entry.DeleteAt.UnixMilli(),
	)
	return err
}

// List implements Journal, earliest deadline first
func (j *SQLiteJournal) List(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT path, delete_at FROM deletions ORDER BY delete_at, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			path     string
			deleteAt int64
		)
		if err := rows.Scan(&path, &deleteAt); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: path, DeleteAt: time.UnixMilli(deleteAt)})
	}
	return entries, rows.Err()
}

// Close implements Journal
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
