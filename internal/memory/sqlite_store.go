package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/easeaico/scenecraft/internal/tags"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that lexical order of stored timestamps
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const creationColumns = "c.id, c.timestamp, c.original_prompt, c.expanded_prompt, c.image_path, c.model_path"

// SQLiteStore implements the Store interface using SQLite.
// Every operation checks a connection out of the database/sql pool and
// returns it when done; inserts run inside a transaction.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore connected to the given database path.
// The path should be a file path (e.g., "./data/memory.db") or ":memory:" for an
// in-memory database. Parent directories of a file path are created.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	inMemory := dbPath == ":memory:"
	if !inMemory && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL lets readers proceed while a writer holds the lock; busy_timeout makes
	// concurrent writers wait instead of failing immediately.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the creations and tags tables if they don't exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS creations (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			original_prompt TEXT NOT NULL,
			expanded_prompt TEXT NOT NULL DEFAULT '',
			image_path TEXT NOT NULL DEFAULT '',
			model_path TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS tags (
			creation_id TEXT NOT NULL REFERENCES creations(id),
			tag TEXT NOT NULL,
			PRIMARY KEY (creation_id, tag)
		);

		CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Insert stores the record and its tags in a single transaction.
// Either the record and all of its tags are written or nothing is.
func (s *SQLiteStore) Insert(ctx context.Context, rec *CreationRecord) (string, error) {
	if err := prepareRecord(rec); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO creations (id, timestamp, original_prompt, expanded_prompt, image_path, model_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UTC().Format(timeLayout), rec.OriginalPrompt, rec.ExpandedPrompt, rec.ImagePath, rec.ModelPath,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert creation: %w", err)
	}

	for _, tag := range tags.Extract(rec.OriginalPrompt) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tags (creation_id, tag) VALUES (?, ?)", rec.ID, tag); err != nil {
			return "", fmt.Errorf("failed to insert tag %q: %w", tag, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit creation: %w", err)
	}
	return rec.ID, nil
}

// QuerySimilar ranks creations by the number of tags shared with the prompt.
// Ties are broken by newest timestamp, then by id, so results are deterministic.
func (s *SQLiteStore) QuerySimilar(ctx context.Context, prompt string, limit int) ([]CreationRecord, error) {
	terms := tags.Extract(prompt)
	if len(terms) == 0 {
		return []CreationRecord{}, nil
	}

	var q queryBuilder
	q.Write("SELECT " + creationColumns + ", COUNT(t.tag) AS match_count FROM creations c JOIN tags t ON c.id = t.creation_id WHERE t.tag IN ").
		In(terms).
		Write(" GROUP BY c.id ORDER BY match_count DESC, c.timestamp DESC, c.id ASC LIMIT ?", normalizeLimit(limit))

	rows, err := s.db.QueryContext(ctx, q.String(), q.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar creations: %w", err)
	}
	defer rows.Close()

	records := []CreationRecord{}
	for rows.Next() {
		var matches int
		rec, err := scanCreation(rows, &matches)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similar creations: %w", err)
	}
	return records, nil
}

// Get loads one creation by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*CreationRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+creationColumns+" FROM creations c WHERE c.id = ?", id)
	rec, err := scanCreation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent lists the newest creations first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]CreationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+creationColumns+" FROM creations c ORDER BY c.timestamp DESC, c.id ASC LIMIT ?",
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent creations: %w", err)
	}
	defer rows.Close()

	records := []CreationRecord{}
	for rows.Next() {
		rec, err := scanCreation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating creations: %w", err)
	}
	return records, nil
}

// Tags returns the stored tags of a creation.
func (s *SQLiteStore) Tags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM tags WHERE creation_id = ? ORDER BY tag", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return out, nil
}

// Count returns the number of stored creations.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM creations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count creations: %w", err)
	}
	return n, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCreation reads the creation columns followed by any extra destinations.
func scanCreation(row scanner, extra ...any) (CreationRecord, error) {
	var rec CreationRecord
	var ts string
	dest := append([]any{
		&rec.ID,
		&ts,
		&rec.OriginalPrompt,
		&rec.ExpandedPrompt,
		&rec.ImagePath,
		&rec.ModelPath,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan creation: %w", err)
	}
	parsed, err := parseTimestamp(ts)
	if err != nil {
		return rec, fmt.Errorf("failed to scan creation %s: %w", rec.ID, err)
	}
	rec.Timestamp = parsed
	return rec, nil
}

// parseTimestamp parses a stored timestamp string to time.Time.
// Rows written by other tools may use any of SQLite's usual text formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05.000000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

var _ Store = (*SQLiteStore)(nil)
