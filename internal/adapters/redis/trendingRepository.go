package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const trendingKey = "trending:posts"

// TrendingRepositoryRedis keeps a view-count ZSET so the most read
// posts can be listed without a table scan. Losing the set is harmless;
// the database view counter is the source of truth.
type TrendingRepositoryRedis struct {
	Client *redis.Client
}

func NewTrendingRepositoryRedis(client *redis.Client) *TrendingRepositoryRedis {
	return &TrendingRepositoryRedis{Client: client}
}

func (r *TrendingRepositoryRedis) RecordView(ctx context.Context, postID string) error {
	return r.Client.ZIncrBy(ctx, trendingKey, 1, postID).Err()
}

func (r *TrendingRepositoryRedis) TopPosts(ctx context.Context, limit int64) ([]string, error) {
	return r.Client.ZRevRange(ctx, trendingKey, 0, limit-1).Result()
}

func (r *TrendingRepositoryRedis) Remove(ctx context.Context, postID string) error {
	return r.Client.ZRem(ctx, trendingKey, postID).Err()
}

// Trim drops everything below the top keep entries.
func (r *TrendingRepositoryRedis) Trim(ctx context.Context, keep int64) error {
	return r.Client.ZRemRangeByRank(ctx, trendingKey, 0, -(keep + 1)).Err()
}
