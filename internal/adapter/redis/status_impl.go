package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/source-crawler/internal/entity"
	"github.com/user/source-crawler/internal/repository"
)

const (
	statusKeyPrefix  = "crawl:status:"
	historyKeyPrefix = "crawl:history:"

	// HistoryLength bounds the per-source outcome list.
	HistoryLength = 20
)

// StatusRepoImpl provides a concrete implementation for the StatusRepository interface using Redis.
// The latest outcome is a string key with a TTL; recent outcomes are a capped list.
type StatusRepoImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusRepo creates a new instance of StatusRepoImpl. Keys expire after ttl.
func NewStatusRepo(client *redis.Client, ttl time.Duration) *StatusRepoImpl {
	return &StatusRepoImpl{client: client, ttl: ttl}
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

func statusKey(sourceID string) string {
	return statusKeyPrefix + sourceID
}

func historyKey(sourceID string) string {
	return historyKeyPrefix + sourceID
}

// SaveLatest overwrites the latest outcome and pushes it onto the history list
// in a single transaction.
func (r *StatusRepoImpl) SaveLatest(ctx context.Context, result entity.CrawlResult) error {
	if r.client == nil {
		return repository.ErrStoreUnavailable
	}
	if result.LoggedAt.IsZero() {
		result.LoggedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, statusKey(result.SourceID), payload, r.ttl)
		pipe.LPush(ctx, historyKey(result.SourceID), payload)
		pipe.LTrim(ctx, historyKey(result.SourceID), 0, HistoryLength-1)
		pipe.Expire(ctx, historyKey(result.SourceID), r.ttl)
		return nil
	})
	return err
}

// Latest returns the cached outcome for sourceID.
func (r *StatusRepoImpl) Latest(ctx context.Context, sourceID string) (*entity.CrawlResult, error) {
	if r.client == nil {
		return nil, repository.ErrStoreUnavailable
	}

	payload, err := r.client.Get(ctx, statusKey(sourceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSourceNotFound
	}
	if err != nil {
		return nil, err
	}

	var result entity.CrawlResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode cached status: %w", err)
	}
	return &result, nil
}

// History returns up to limit cached outcomes, newest first.
func (r *StatusRepoImpl) History(ctx context.Context, sourceID string, limit int) ([]entity.CrawlResult, error) {
	if r.client == nil {
		return nil, repository.ErrStoreUnavailable
	}
	if limit <= 0 || limit > HistoryLength {
		limit = HistoryLength
	}

	payloads, err := r.client.LRange(ctx, historyKey(sourceID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]entity.CrawlResult, 0, len(payloads))
	for _, p := range payloads {
		var result entity.CrawlResult
		if err := json.Unmarshal([]byte(p), &result); err != nil {
			return nil, fmt.Errorf("decode cached status: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
