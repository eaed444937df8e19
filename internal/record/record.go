package record

import (
	"time"

	"github.com/google/uuid"
)

// Record is one persisted timing interval.
type Record struct {
	ID        string    `json:"id"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// New assigns a fresh id to a formatted time.
func New(formatted string, createdAt time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Time:      formatted,
		CreatedAt: createdAt.UTC(),
	}
}

// legacyNamespace scopes ids derived for records stored without one.
var legacyNamespace = uuid.MustParse("5b0f2f8e-9a55-4d6b-8f1c-3f7f5f0b7c21")

// Derived builds a stable id for a record that was stored as a bare time,
// keyed by its position and text.
func Derived(position int, formatted string) Record {
	key := []byte(formatted)
	key = append(key, byte(position>>24), byte(position>>16), byte(position>>8), byte(position))
	return Record{
		ID:   uuid.NewSHA1(legacyNamespace, key).String(),
		Time: formatted,
	}
}

// Newest returns a copy of records ordered newest first.
func Newest(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[len(records)-1-i] = r
	}
	return out
}

// Times projects records to their formatted times, preserving order.
func Times(records []Record) []string {
	times := make([]string, 0, len(records))
	for _, r := range records {
		times = append(times, r.Time)
	}
	return times
}
