// Package storagetest runs the storage.Store contract against a backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cubetimer/internal/record"
	"cubetimer/internal/storage"
)

// Run exercises open against every behavior callers rely on. open must
// return an empty store.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("AddAndListOrder", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		times := []string{"00:05:000", "00:03:250", "00:04:999"}
		for i, tm := range times {
			rec := record.New(tm, time.Now().Add(time.Duration(i)*time.Second))
			if err := store.Add(ctx, rec); err != nil {
				t.Fatalf("add record: %v", err)
			}
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list records: %v", err)
		}
		if len(records) != len(times) {
			t.Fatalf("expected %d records, got %d", len(times), len(records))
		}
		for i, rec := range records {
			if rec.Time != times[i] {
				t.Fatalf("record %d: expected %s, got %s", i, times[i], rec.Time)
			}
			if rec.ID == "" {
				t.Fatalf("record %d has no id", i)
			}
		}
	})

	t.Run("DeleteByID", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		keep := record.New("00:01:000", time.Now())
		drop := record.New("00:01:000", time.Now())
		for _, rec := range []record.Record{keep, drop} {
			if err := store.Add(ctx, rec); err != nil {
				t.Fatalf("add record: %v", err)
			}
		}

		deleted, err := store.Delete(ctx, drop.ID)
		if err != nil {
			t.Fatalf("delete record: %v", err)
		}
		if deleted.ID != drop.ID {
			t.Fatalf("expected deleted id %s, got %s", drop.ID, deleted.ID)
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list records: %v", err)
		}
		if len(records) != 1 || records[0].ID != keep.ID {
			t.Fatalf("expected only %s to remain, got %+v", keep.ID, records)
		}

		if _, err := store.Delete(ctx, drop.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on duplicate delete, got %v", err)
		}
	})

	t.Run("DeleteByTimeRemovesOldest", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		first := record.New("00:02:000", time.Now())
		other := record.New("00:09:000", time.Now())
		second := record.New("00:02:000", time.Now())
		for _, rec := range []record.Record{first, other, second} {
			if err := store.Add(ctx, rec); err != nil {
				t.Fatalf("add record: %v", err)
			}
		}

		deleted, err := store.DeleteByTime(ctx, "00:02:000")
		if err != nil {
			t.Fatalf("delete by time: %v", err)
		}
		if deleted.ID != first.ID {
			t.Fatalf("expected oldest match %s, got %s", first.ID, deleted.ID)
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list records: %v", err)
		}
		if len(records) != 2 || records[0].ID != other.ID || records[1].ID != second.ID {
			t.Fatalf("unexpected remaining records: %+v", records)
		}

		if _, err := store.DeleteByTime(ctx, "59:59:999"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SeparatorsInFieldsRoundTrip", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		split := record.New("00:01:000\n00:02:000", time.Now())
		tabbed := record.New("00:03:000\tbogus", time.Now())
		quoted := record.New(`"00:04:000"`, time.Now())
		for _, rec := range []record.Record{split, tabbed, quoted} {
			if err := store.Add(ctx, rec); err != nil {
				t.Fatalf("add record: %v", err)
			}
		}

		records, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list records: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d: %+v", len(records), records)
		}
		for i, want := range []record.Record{split, tabbed, quoted} {
			if records[i].ID != want.ID || records[i].Time != want.Time {
				t.Fatalf("record %d: expected %q/%s, got %q/%s", i, want.Time, want.ID, records[i].Time, records[i].ID)
			}
		}

		deleted, err := store.DeleteByTime(ctx, tabbed.Time)
		if err != nil {
			t.Fatalf("delete by time: %v", err)
		}
		if deleted.ID != tabbed.ID {
			t.Fatalf("expected %s deleted, got %s", tabbed.ID, deleted.ID)
		}
	})

	t.Run("EmptyList", func(t *testing.T) {
		store := open(t)
		defer func() { _ = store.Close() }()

		records, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("list records: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("expected no records, got %d", len(records))
		}
	})
}
