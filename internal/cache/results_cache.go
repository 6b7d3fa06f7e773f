package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"typerace/internal/model"

	"github.com/redis/go-redis/v9"
)

// ResultsCache keeps final race standings for a while after the session ends
type ResultsCache interface {
	Set(ctx context.Context, roomID string, results []model.RaceResult) error
	Get(ctx context.Context, roomID string) ([]model.RaceResult, error)
	Delete(ctx context.Context, roomID string) error
}

type resultsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultsCache(client *redis.Client, ttl time.Duration) ResultsCache {
	return &resultsCache{
		client: client,
		ttl:    ttl,
	}
}

func resultsKey(roomID string) string {
	return fmt.Sprintf("race:%s:results", roomID)
}

func (c *resultsCache) Set(ctx context.Context, roomID string, results []model.RaceResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultsKey(roomID), data, c.ttl).Err()
}

// Get returns (nil, nil) when nothing is cached for the room
func (c *resultsCache) Get(ctx context.Context, roomID string) ([]model.RaceResult, error) {
	data, err := c.client.Get(ctx, resultsKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var results []model.RaceResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *resultsCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, resultsKey(roomID)).Err()
}
