// Package sqlite provides a SQLite-backed game archive.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/storage"
	"github.com/mcoot/ghoulgame/internal/storage/sqlite/migrations"
)

// Store persists finished games in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite archive and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveGameRecord inserts or replaces one archived game.
func (s *Store) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(string(record.ID)) == "" {
		return fmt.Errorf("game id is required")
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode game record: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO game_records (id, session_id, winner, ended_at, body)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id,
		   winner = excluded.winner,
		   ended_at = excluded.ended_at,
		   body = excluded.body`,
		string(record.ID),
		string(record.SessionID),
		string(record.Winner),
		toMillis(record.EndedAt),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("save game record: %w", err)
	}
	return nil
}

// GetGameRecord returns one archived game by ID.
func (s *Store) GetGameRecord(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT body FROM game_records WHERE id = ?`, string(id)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, fmt.Errorf("get game record: %w", err)
	}
	return decodeRecord(body)
}

// ListGameRecords returns archived games, most recently ended first.
func (s *Store) ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT body FROM game_records ORDER BY ended_at DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list game records: %w", err)
	}
	defer rows.Close()

	records := []*model.GameRecord{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan game record: %w", err)
		}
		record, err := decodeRecord(body)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game records: %w", err)
	}
	return records, nil
}

func decodeRecord(body string) (*model.GameRecord, error) {
	var record model.GameRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return nil, fmt.Errorf("decode game record: %w", err)
	}
	return &record, nil
}

// applyMigrations executes each embedded .sql file once, in name order.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var count int
		if err := sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, file).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, file, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}
