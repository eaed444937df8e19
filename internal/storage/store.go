package storage

import (
	"context"
	"errors"
	"os"

	"cubetimer/internal/record"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store persists records in insertion order.
type Store interface {
	Add(ctx context.Context, rec record.Record) error
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) (record.Record, error)
	// DeleteByTime removes the oldest record whose time matches exactly.
	DeleteByTime(ctx context.Context, formatted string) (record.Record, error)
	// List returns every record, oldest first.
	List(ctx context.Context) ([]record.Record, error)
	Close() error
}

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
