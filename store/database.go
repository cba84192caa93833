// Package store caches extracted image metadata and build history in sqlite
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS image_cache (
		filename      TEXT NOT NULL,
		mod_time      INTEGER NOT NULL,
		size          INTEGER NOT NULL,
		width         INTEGER NOT NULL,
		height        INTEGER NOT NULL,
		blur_data_url TEXT NOT NULL,
		exif          TEXT,
		PRIMARY KEY (filename)
	);
	CREATE TABLE IF NOT EXISTS builds (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		mode        TEXT NOT NULL,
		processed   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		uploaded    INTEGER NOT NULL,
		reused      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := d.db.Exec(query)
	return err
}

// GetCachedImage returns nil without an error when filename has no entry.
func (d *Database) GetCachedImage(filename string) (*CachedImage, error) {
	const query = `
		SELECT filename, mod_time, size, width, height, blur_data_url, exif
		FROM image_cache
		WHERE filename = ?
	`

	var c CachedImage
	var modTime int64
	var exifJSON sql.NullString
	err := d.db.QueryRow(query, filename).Scan(
		&c.Filename,
		&modTime,
		&c.Size,
		&c.Width,
		&c.Height,
		&c.BlurDataURL,
		&exifJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached image: %w", err)
	}

	c.ModTime = time.Unix(0, modTime)
	if exifJSON.Valid && exifJSON.String != "" {
		if err := json.Unmarshal([]byte(exifJSON.String), &c.Exif); err != nil {
			return nil, fmt.Errorf("decode cached exif: %w", err)
		}
	}
	return &c, nil
}

func (d *Database) UpsertCachedImage(c *CachedImage) error {
	const stmt = `
		INSERT INTO image_cache (
			filename,
			mod_time,
			size,
			width,
			height,
			blur_data_url,
			exif
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			mod_time      = excluded.mod_time,
			size          = excluded.size,
			width         = excluded.width,
			height        = excluded.height,
			blur_data_url = excluded.blur_data_url,
			exif          = excluded.exif
	`

	var exifJSON sql.NullString
	if c.Exif != nil {
		data, err := json.Marshal(c.Exif)
		if err != nil {
			return fmt.Errorf("encode exif: %w", err)
		}
		exifJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := d.db.Exec(
		stmt,
		c.Filename,
		c.ModTime.UnixNano(),
		c.Size,
		c.Width,
		c.Height,
		c.BlurDataURL,
		exifJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert cached image: %w", err)
	}
	return nil
}

// PruneMissing removes every cached entry whose filename is not in keep and
// returns how many were removed.
func (d *Database) PruneMissing(keep mapset.Set[string]) (int, error) {
	rows, err := d.db.Query(`SELECT filename FROM image_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to query cached images: %w", err)
	}

	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan cached image: %w", err)
		}
		if !keep.Contains(name) {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	for _, name := range stale {
		if _, err := d.db.Exec(`DELETE FROM image_cache WHERE filename = ?`, name); err != nil {
			return 0, fmt.Errorf("failed to delete cached image: %w", err)
		}
	}
	return len(stale), nil
}

func (d *Database) GetCachedImageCount() (int, error) {
	query := `SELECT COUNT(*) FROM image_cache`
	var count int
	if err := d.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get cached image count: %w", err)
	}
	return count, nil
}

func (d *Database) InsertBuild(b *Build) error {
	const stmt = `
		INSERT INTO builds (started_at, duration_ms, mode, processed, skipped, uploaded, reused)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.Exec(
		stmt,
		b.StartedAt.UnixNano(),
		b.Duration.Milliseconds(),
		b.Mode,
		b.Processed,
		b.Skipped,
		b.Uploaded,
		b.Reused,
	)
	if err != nil {
		return fmt.Errorf("failed to insert build: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get build id: %w", err)
	}
	b.ID = id
	return nil
}

// ListBuilds returns the most recent builds first.
func (d *Database) ListBuilds(limit int) ([]Build, error) {
	query := `
		SELECT id, started_at, duration_ms, mode, processed, skipped, uploaded, reused
		FROM builds
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var startedAt, durationMs int64
		if err := rows.Scan(&b.ID, &startedAt, &durationMs, &b.Mode, &b.Processed, &b.Skipped, &b.Uploaded, &b.Reused); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.StartedAt = time.Unix(0, startedAt)
		b.Duration = time.Duration(durationMs) * time.Millisecond
		builds = append(builds, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return builds, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
