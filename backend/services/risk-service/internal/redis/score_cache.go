package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// latestScore is the cached payload per vehicle.
type latestScore struct {
	RiskScore  int       `json:"risk_score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ScoreCache keeps the most recent risk score per vehicle for quick reads.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache returns redis-backed cache.
func NewScoreCache(client *redis.Client, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, ttl: ttl}
}

func (c *ScoreCache) key(vehicleNumber string) string {
	return fmt.Sprintf("risk:latest:%s", vehicleNumber)
}

// SaveLatest caches the newest score for a vehicle.
func (c *ScoreCache) SaveLatest(ctx context.Context, vehicleNumber string, score int, at time.Time) error {
	data, err := json.Marshal(latestScore{RiskScore: score, RecordedAt: at})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(vehicleNumber), data, c.ttl).Err()
}

// GetLatest returns the cached score. The third return value reports a cache hit.
func (c *ScoreCache) GetLatest(ctx context.Context, vehicleNumber string) (int, time.Time, bool, error) {
	result, err := c.client.Get(ctx, c.key(vehicleNumber)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, err
	}
	var cached latestScore
	if err := json.Unmarshal([]byte(result), &cached); err != nil {
		return 0, time.Time{}, false, err
	}
	return cached.RiskScore, cached.RecordedAt, true, nil
}
