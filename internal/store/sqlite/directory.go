// Package sqlite provides SQLite-backed persistence for the bridge's
// linked-identity directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/namvu/quizbridge/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS lid_directory (
	lid        TEXT PRIMARY KEY,
	phone      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Directory is a store.Directory backed by a local SQLite database.
type Directory struct {
	db *sql.DB
}

// OpenDirectory opens (creating if needed) the directory database at path.
func OpenDirectory(path string) (*Directory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open directory db: %w", err)
	}
	// The directory sees single-writer traffic; one connection avoids
	// SQLITE_BUSY under the modernc driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init directory schema: %w", err)
	}

	return &Directory{db: db}, nil
}

// Close releases the underlying database handle.
func (d *Directory) Close() error { return d.db.Close() }

// LookupPhone implements store.Directory.
func (d *Directory) LookupPhone(ctx context.Context, lid string) (string, error) {
	var phone string
	err := d.db.QueryRowContext(ctx,
		`SELECT phone FROM lid_directory WHERE lid = ?`, lid,
	).Scan(&phone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup lid %q: %w", lid, err)
	}
	return phone, nil
}

// Upsert implements store.Directory.
func (d *Directory) Upsert(ctx context.Context, lid, phone string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO lid_directory (lid, phone, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(lid) DO UPDATE SET phone = excluded.phone, updated_at = excluded.updated_at`,
		lid, phone, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert lid %q: %w", lid, err)
	}
	return nil
}
