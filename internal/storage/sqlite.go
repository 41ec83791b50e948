package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Use MemoryDSN for a store that lives only as long as the returned value.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	memory := dbPath == MemoryDSN
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if memory {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		path TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		unit_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		ordinal INTEGER NOT NULL,
		source_id TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source_id ON chunks(source_id, ordinal);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSource inserts or replaces a source record.
func (s *SQLiteStorage) CreateSource(ctx context.Context, src *SourceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sources (id, label, path, kind, status, error, unit_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Label, src.Path, src.Kind, src.Status, src.Error, src.UnitCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source %s: %w", src.ID, err)
	}
	return nil
}

// ListSources returns all source records ordered by label then path.
func (s *SQLiteStorage) ListSources(ctx context.Context) ([]*SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, path, kind, status, error, unit_count
		 FROM sources ORDER BY label, path`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SourceRecord
	for rows.Next() {
		var src SourceRecord
		var errText sql.NullString
		if err := rows.Scan(&src.ID, &src.Label, &src.Path, &src.Kind, &src.Status, &errText, &src.UnitCount); err != nil {
			return nil, err
		}
		src.Error = errText.String
		out = append(out, &src)
	}
	return out, rows.Err()
}

// BatchCreateChunks inserts multiple chunks in a transaction.
func (s *SQLiteStorage) BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, ordinal, source_id, content, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Ordinal, chunk.SourceID, chunk.Content, string(metadataJSON)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunk returns a chunk by ID.
func (s *SQLiteStorage) GetChunk(ctx context.Context, id string) (*models.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ordinal, source_id, content, metadata FROM chunks WHERE id = ?`, id,
	)
	chunk, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunks returns the chunks for ids in the order given. Unknown ids are skipped.
func (s *SQLiteStorage) GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ordinal, source_id, content, metadata FROM chunks WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Chunk, len(ids))
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.Chunk, 0, len(byID))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			out = append(out, chunk)
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChunk(row scanner) (*models.Chunk, error) {
	var chunk models.Chunk
	var metadataJSON sql.NullString
	if err := row.Scan(&chunk.ID, &chunk.Ordinal, &chunk.SourceID, &chunk.Content, &metadataJSON); err != nil {
		return nil, err
	}
	if metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	normalizeNumbers(chunk.Metadata)
	return &chunk, nil
}

// normalizeNumbers restores integral JSON numbers (decoded as float64) to int.
func normalizeNumbers(m map[string]any) {
	for k, v := range m {
		if f, ok := v.(float64); ok && f == float64(int(f)) {
			m[k] = int(f)
		}
	}
}

// CountSources returns the total number of sources.
func (s *SQLiteStorage) CountSources(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count)
	return count, err
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
