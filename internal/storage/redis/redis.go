package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cubetimer/internal/record"
	"cubetimer/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Config holds connection settings for the Redis store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements storage.Store using a Redis list of ids plus one hash per
// record.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.Store = (*Store)(nil)

// Open creates a new Redis-backed store and verifies the connection.
func Open(cfg Config) (*Store, error) {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "cubetimer"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: prefix}, nil
}

func (s *Store) listKey() string {
	return s.prefix + ":records"
}

func (s *Store) recordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", s.prefix, id)
}

func (s *Store) Add(ctx context.Context, rec record.Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(rec.ID),
			"id", rec.ID,
			"time", rec.Time,
			"created_at", rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		pipe.RPush(ctx, s.listKey(), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("add record: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) (record.Record, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return record.Record{}, err
	}

	removed, err := s.client.LRem(ctx, s.listKey(), 1, id).Result()
	if err != nil {
		return record.Record{}, fmt.Errorf("remove record id: %w", err)
	}
	if removed == 0 {
		return record.Record{}, storage.ErrNotFound
	}
	if err := s.client.Del(ctx, s.recordKey(id)).Err(); err != nil {
		return record.Record{}, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}

func (s *Store) DeleteByTime(ctx context.Context, formatted string) (record.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return record.Record{}, err
	}
	for _, rec := range records {
		if rec.Time == formatted {
			return s.Delete(ctx, rec.ID)
		}
	}
	return record.Record{}, storage.ErrNotFound
}

func (s *Store) List(ctx context.Context) ([]record.Record, error) {
	ids, err := s.client.LRange(ctx, s.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}

	records := make([]record.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) get(ctx context.Context, id string) (record.Record, error) {
	data, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return record.Record{}, fmt.Errorf("get record: %w", err)
	}
	if len(data) == 0 {
		return record.Record{}, storage.ErrNotFound
	}

	rec := record.Record{ID: data["id"], Time: data["time"]}
	if rec.ID == "" {
		rec.ID = id
	}
	if raw := data["created_at"]; raw != "" {
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return rec, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}
