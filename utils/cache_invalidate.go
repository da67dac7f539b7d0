package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// CacheInvalidator purges cached event responses after mutations, so
// seats_left shown on the read path never lags a booking or cancellation by
// more than one request.
type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) {
	ci.purgePrefix(ctx, "cache:events:list:*")
}

// PurgeEventItem drops all cached single-event bodies. Item keys hash the
// event id, so a per-id delete is not possible; the item keyspace is small
// and short-lived, a full sweep is fine.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, id string) {
	ci.purgePrefix(ctx, "cache:events:item:*")
}

func (ci *CacheInvalidator) purgePrefix(ctx context.Context, pattern string) {
	iter := ci.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}
