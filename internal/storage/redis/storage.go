package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/ghoulgame/internal/model"
	"github.com/mcoot/ghoulgame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveGameRecord(ctx context.Context, record *model.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameRecordKey(record.ID), data, s.cfg.RecordTTL)
	pipe.ZAdd(ctx, gamesByEndIndexKey(), redis.Z{
		Score:  float64(record.EndedAt.UnixMilli()),
		Member: string(record.ID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGameRecord(ctx context.Context, id model.GameID) (*model.GameRecord, error) {
	data, err := s.client.Get(ctx, gameRecordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var record model.GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Storage) ListGameRecords(ctx context.Context, limit int) ([]*model.GameRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	ids, err := s.client.ZRevRange(ctx, gamesByEndIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.GameRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameRecordKey(model.GameID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.GameRecord, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Record expired but its index entry is still around
			expired = append(expired, ids[i])
			continue
		}
		var record model.GameRecord
		if err := json.Unmarshal([]byte(str), &record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, gamesByEndIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}

	return records, nil
}
