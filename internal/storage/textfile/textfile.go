// Package textfile stores records one per line in a plain text file.
//
// A line is either a bare formatted time, as written by older versions of the
// timer, or a tab separated "time id created_at" triple. Bare lines get an id
// derived from their position and text; the first rewrite of the file
// persists those ids. Fields that contain separators, quotes or surrounding
// space are written as Go quoted strings.
package textfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"cubetimer/internal/record"
	"cubetimer/internal/storage"
)

// Store implements storage.Store on a text file.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ storage.Store = (*Store)(nil)

// Open creates the file if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create times dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open times file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close times file: %w", err)
	}

	return &Store{path: path}, nil
}

func (s *Store) Add(ctx context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open times file: %w", err)
	}
	if _, err := f.WriteString(encodeLine(rec) + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append record: %w", err)
	}
	return f.Close()
}

func (s *Store) Delete(ctx context.Context, id string) (record.Record, error) {
	return s.remove(func(rec record.Record) bool { return rec.ID == id })
}

func (s *Store) DeleteByTime(ctx context.Context, formatted string) (record.Record, error) {
	return s.remove(func(rec record.Record) bool { return rec.Time == formatted })
}

func (s *Store) remove(match func(record.Record) bool) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return record.Record{}, err
	}

	for i, rec := range records {
		if !match(rec) {
			continue
		}
		remaining := append(records[:i:i], records[i+1:]...)
		if err := s.write(remaining); err != nil {
			return record.Record{}, err
		}
		return rec, nil
	}
	return record.Record{}, storage.ErrNotFound
}

func (s *Store) List(ctx context.Context) ([]record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) read() ([]record.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open times file: %w", err)
	}
	defer f.Close()

	var records []record.Record
	scanner := bufio.NewScanner(f)
	position := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		records = append(records, decodeLine(position, line))
		position++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read times file: %w", err)
	}
	return records, nil
}

// write replaces the file atomically.
func (s *Store) write(records []record.Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".times-*")
	if err != nil {
		return fmt.Errorf("create temp times file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.WriteString(encodeLine(rec) + "\n"); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write times file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush times file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp times file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace times file: %w", err)
	}
	return nil
}

func encodeLine(rec record.Record) string {
	createdAt := ""
	if !rec.CreatedAt.IsZero() {
		createdAt = rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return strings.Join([]string{encodeField(rec.Time), encodeField(rec.ID), createdAt}, "\t")
}

func decodeLine(position int, line string) record.Record {
	fields := strings.Split(line, "\t")
	for i := range fields[:min(len(fields), 2)] {
		fields[i] = decodeField(fields[i])
	}
	if len(fields) < 2 || fields[1] == "" {
		return record.Derived(position, fields[0])
	}

	rec := record.Record{Time: fields[0], ID: fields[1]}
	if len(fields) > 2 && fields[2] != "" {
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields[2])
	}
	return rec
}

func encodeField(s string) string {
	if s == "" || strings.IndexFunc(s, unicode.IsControl) >= 0 ||
		strings.ContainsAny(s, "\"\\") ||
		strings.TrimSpace(s) != s {
		return strconv.Quote(s)
	}
	return s
}

func decodeField(s string) string {
	if !strings.HasPrefix(s, `"`) {
		return s
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}
