package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"cubetimer/internal/record"
	"cubetimer/internal/storage"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverModernc is the pure Go driver registered by modernc.org/sqlite.
	DriverModernc = "sqlite"
	// DriverCGO is the cgo driver registered by mattn/go-sqlite3.
	DriverCGO = "sqlite3"
)

// Store implements storage.Store on a sqlite database.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path using driver.
func Open(path, driver string) (*Store, error) {
	if driver == "" {
		driver = DriverModernc
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn, err := dataSource(path, driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func dataSource(path, driver string) (string, error) {
	switch driver {
	case DriverModernc:
		return fmt.Sprintf("%s?_pragma=busy_timeout(8000)", path), nil
	case DriverCGO:
		return fmt.Sprintf("%s?_busy_timeout=8000", path), nil
	default:
		return "", fmt.Errorf("unknown sqlite driver %q", driver)
	}
}

func (s *Store) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		time TEXT NOT NULL,
		created_at TEXT NOT NULL
	)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS records_time ON records (time)`); err != nil {
		return fmt.Errorf("create records index: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, rec record.Record) error {
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO records (id, time, created_at) VALUES (?, ?, ?)",
		rec.ID,
		rec.Time,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) (record.Record, error) {
	return s.deleteWhere(ctx, "SELECT seq, id, time, created_at FROM records WHERE id = ?", id)
}

func (s *Store) DeleteByTime(ctx context.Context, formatted string) (record.Record, error) {
	return s.deleteWhere(ctx, "SELECT seq, id, time, created_at FROM records WHERE time = ? ORDER BY seq LIMIT 1", formatted)
}

func (s *Store) deleteWhere(ctx context.Context, query string, arg string) (record.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record.Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	rec, err := scanRecord(tx.QueryRowContext(ctx, query, arg), &seq)
	if err != nil {
		return record.Record{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE seq = ?", seq); err != nil {
		return record.Record{}, fmt.Errorf("delete record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return record.Record{}, fmt.Errorf("commit delete: %w", err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT seq, id, time, created_at FROM records ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		var seq int64
		rec, err := scanRecord(rows, &seq)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, seq *int64) (record.Record, error) {
	var rec record.Record
	var createdAt string
	if err := row.Scan(seq, &rec.ID, &rec.Time, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.Record{}, storage.ErrNotFound
		}
		return record.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}
