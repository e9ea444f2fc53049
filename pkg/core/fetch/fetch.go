// Package fetch implements the per-source fetchers: one fetcher per
// source (forum API, web-search API), each emitting RawItems with
// retries and rate-limiting. Each forum listing and each search query is
// fetched with a single request; further result pages are not requested.
package fetch

import (
	"context"
	"time"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

// Stats records what one fetcher call accomplished.
type Stats struct {
	Source       string
	ItemsFetched int
	UsedFallback bool // forum: fell back to the wider time window
}

// Fetcher is the contract every source implementation satisfies.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]model.RawItem, Stats, error)
}

// CacheStore is the subset of httpcache.Cache a fetcher needs. Declared
// here so fetchers depend on this interface rather than on the concrete
// *httpcache.Cache (they use the httpcache package only for Key); a nil
// CacheStore disables caching.
type CacheStore interface {
	Get(ctx context.Context, key string) (body []byte, statusCode int, ok bool, err error)
	Put(ctx context.Context, key string, body []byte, statusCode int, fetchedAt time.Time) error
}

// fetchCached serves key from cache when present, else calls do and stores
// the result. A cache miss or error never fails the call: caching is
// optional and non-authoritative.
func fetchCached(ctx context.Context, cache CacheStore, key string, now func() time.Time, do func() ([]byte, int, error)) ([]byte, error) {
	if cache != nil {
		if body, status, ok, err := cache.Get(ctx, key); err == nil && ok && status >= 200 && status < 300 {
			return body, nil
		}
	}
	body, status, err := do()
	if err != nil {
		return nil, err
	}
	if cache != nil {
		_ = cache.Put(ctx, key, body, status, now())
	}
	return body, nil
}
