package cache

import (
	"context"
	"errors"
)

// FeedCache stores rendered feed documents keyed by (store slug, feed type).
type FeedCache interface {
	Get(ctx context.Context, storeSlug, feedType string) (string, error)
	Set(ctx context.Context, storeSlug, feedType, body string) error
	Delete(ctx context.Context, storeSlug, feedType string) error
}

var ErrCacheMiss = errors.New("cache miss")
