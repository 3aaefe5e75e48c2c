// Package sqlite provides SQLite-backed persistence for session records.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lunagrove/landingforge/internal/generation/storage"
	"github.com/lunagrove/landingforge/internal/generation/storage/sqlite/migrations"
	sqlitemigrate "github.com/lunagrove/landingforge/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

const defaultListLimit = 20
const maxListLimit = 100

// Store provides SQLite-backed persistence for session records.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutSession inserts or replaces a session record.
func (s *Store) PutSession(ctx context.Context, record storage.SessionRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (
    id, owner_id, state, progress, mechanic, theme, language,
    error_detail, archive_path, preview_path, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    state = excluded.state,
    progress = excluded.progress,
    mechanic = excluded.mechanic,
    theme = excluded.theme,
    language = excluded.language,
    error_detail = excluded.error_detail,
    archive_path = excluded.archive_path,
    preview_path = excluded.preview_path,
    updated_at = excluded.updated_at
`,
		record.ID,
		record.OwnerID,
		record.State,
		record.Progress,
		record.Mechanic,
		record.Theme,
		record.Language,
		record.ErrorDetail,
		record.ArchivePath,
		record.PreviewPath,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession returns a session record by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, state, progress, mechanic, theme, language,
       error_detail, archive_path, preview_path, created_at, updated_at
FROM sessions WHERE id = ?
`, sessionID)

	record, err := scanSessionRow(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// ListSessionsByOwner returns up to limit records for an owner, newest first.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID int64, limit int) ([]storage.SessionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, state, progress, mechanic, theme, language,
       error_detail, archive_path, preview_path, created_at, updated_at
FROM sessions WHERE owner_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []storage.SessionRecord
	for rows.Next() {
		record, err := scanSessionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

func scanSessionRow(scan func(dest ...any) error) (storage.SessionRecord, error) {
	var (
		record    storage.SessionRecord
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&record.ID,
		&record.OwnerID,
		&record.State,
		&record.Progress,
		&record.Mechanic,
		&record.Theme,
		&record.Language,
		&record.ErrorDetail,
		&record.ArchivePath,
		&record.PreviewPath,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SessionRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
