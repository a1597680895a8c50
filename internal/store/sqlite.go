package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS definitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    remote_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    viewthrough_lookback_window INTEGER NOT NULL,
    ctc_lookback_window INTEGER NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name);

CREATE TABLE IF NOT EXISTS uploads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    conversion_name TEXT NOT NULL,
    google_click_id TEXT NOT NULL,
    conversion_time TEXT NOT NULL,
    conversion_value REAL NOT NULL,
    status TEXT NOT NULL,
    error TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_uploads_name ON uploads(conversion_name);
CREATE INDEX IF NOT EXISTS idx_uploads_run ON uploads(run_id);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordDefinition(ctx context.Context, d *Definition) error {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO definitions (run_id, remote_id, name, category, viewthrough_lookback_window, ctc_lookback_window, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.RemoteID, d.Name, d.Category, d.ViewthroughLookbackWindow, d.CtcLookbackWindow, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert definition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	d.ID = id
	d.CreatedAt = time.Unix(now, 0)
	return nil
}

// GetDefinition returns the most recent definition recorded under name.
func (s *SQLiteStore) GetDefinition(ctx context.Context, name string) (*Definition, error) {
	var d Definition
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, remote_id, name, category, viewthrough_lookback_window, ctc_lookback_window, created_at
		 FROM definitions WHERE name = ? ORDER BY id DESC LIMIT 1`, name,
	).Scan(&d.ID, &d.RunID, &d.RemoteID, &d.Name, &d.Category, &d.ViewthroughLookbackWindow, &d.CtcLookbackWindow, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	d.CreatedAt = time.Unix(createdAt, 0)
	return &d, nil
}

func (s *SQLiteStore) ListDefinitions(ctx context.Context) ([]*Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, remote_id, name, category, viewthrough_lookback_window, ctc_lookback_window, created_at
		 FROM definitions ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*Definition
	for rows.Next() {
		var d Definition
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.RunID, &d.RemoteID, &d.Name, &d.Category, &d.ViewthroughLookbackWindow, &d.CtcLookbackWindow, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0)
		defs = append(defs, &d)
	}

	return defs, rows.Err()
}

func (s *SQLiteStore) RecordUpload(ctx context.Context, u *Upload) error {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (run_id, conversion_name, google_click_id, conversion_time, conversion_value, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.RunID, u.ConversionName, u.GoogleClickID, u.ConversionTime, u.ConversionValue, string(u.Status), nullableString(u.Error), now,
	)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	u.ID = id
	u.CreatedAt = time.Unix(now, 0)
	return nil
}

// ListUploads returns uploads newest first. An empty conversionName lists all.
func (s *SQLiteStore) ListUploads(ctx context.Context, conversionName string) ([]*Upload, error) {
	query := `SELECT id, run_id, conversion_name, google_click_id, conversion_time, conversion_value, status, error, created_at
		 FROM uploads`
	var args []interface{}
	if conversionName != "" {
		query += ` WHERE conversion_name = ?`
		args = append(args, conversionName)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		var u Upload
		var errText sql.NullString
		var createdAt int64
		if err := rows.Scan(&u.ID, &u.RunID, &u.ConversionName, &u.GoogleClickID, &u.ConversionTime, &u.ConversionValue, &u.Status, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		u.Error = errText.String
		u.CreatedAt = time.Unix(createdAt, 0)
		uploads = append(uploads, &u)
	}

	return uploads, rows.Err()
}

func (s *SQLiteStore) GetUploadStats(ctx context.Context) ([]UploadStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			conversion_name,
			COUNT(CASE WHEN status = 'uploaded' THEN 1 END) as uploaded,
			COUNT(CASE WHEN status = 'failed' THEN 1 END) as failed,
			COALESCE(SUM(CASE WHEN status = 'uploaded' THEN conversion_value END), 0) as total_value
		FROM uploads
		GROUP BY conversion_name
		ORDER BY conversion_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload stats: %w", err)
	}
	defer rows.Close()

	var stats []UploadStats
	for rows.Next() {
		var st UploadStats
		if err := rows.Scan(&st.ConversionName, &st.Uploaded, &st.Failed, &st.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, st)
	}

	return stats, rows.Err()
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
