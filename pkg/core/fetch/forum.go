package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/priceintel/pricingintel/internal/errs"
	"github.com/priceintel/pricingintel/internal/xlog"
	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/httpcache"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
)

// userAgent identifies this pipeline to upstream APIs.
const userAgent = "PriceIntel/1.0 (contact@example.com)"

// listing is one of the forum API's sort orders that ForumFetcher merges
// together: hot, new, top, and rising-equivalent listings.
type listing string

const (
	listingHot    listing = "hot"
	listingNew    listing = "new"
	listingTop    listing = "top"
	listingRising listing = "rising"
)

var allListings = []listing{listingHot, listingNew, listingTop, listingRising}

// forumPost mirrors the subset of an upstream forum API's post payload this
// pipeline consumes.
type forumPost struct {
	Title     string `json:"title"`
	Body      string `json:"selftext"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"created_utc"`
	Upvotes   int    `json:"score"`
	Comments  int    `json:"num_comments"`
}

// ForumFetcher pulls recent posts from a configured set of forum
// sub-channels, merging several listing orders and applying a
// quality filter.
type ForumFetcher struct {
	cfg     config.ForumConfig
	client  *http.Client
	dict    VendorMatcher
	log     *xlog.Logger
	limiter *rate.Limiter
	baseURL string
	now     func() time.Time
	cache   CacheStore
}

// VendorMatcher is the subset of vendordict.Dictionary the forum fetcher
// needs, to decide whether a low-engagement item mentions a tier-1 vendor.
type VendorMatcher interface {
	Match(text string) vendordict.MatchResult
	Tier(vendor string) vendordict.Tier
}

// NewForumFetcher builds a forum fetcher. baseURL points at the upstream
// forum API root (e.g. "https://forum.example.com"); it is a parameter
// rather than a constant so tests can point it at an httptest server.
func NewForumFetcher(cfg config.ForumConfig, dict VendorMatcher, baseURL string, now func() time.Time) *ForumFetcher {
	if now == nil {
		now = time.Now
	}
	return &ForumFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		dict:    dict,
		log:     xlog.New("fetch.forum"),
		limiter: newLimiter(cfg.RatePerSec),
		baseURL: baseURL,
		now:     now,
	}
}

// SetCache attaches the optional content-addressed HTTP cache. Passing
// nil disables caching.
func (f *ForumFetcher) SetCache(c CacheStore) { f.cache = c }

func (f *ForumFetcher) Name() string { return "forum" }

// Fetch iterates every configured sub-channel and listing, merges results,
// applies the window/fallback-window logic and the quality filter.
func (f *ForumFetcher) Fetch(ctx context.Context) ([]model.RawItem, Stats, error) {
	stats := Stats{Source: f.Name()}
	var allItems []model.RawItem
	var lastErr error
	anySucceeded := false

	for _, sub := range f.cfg.SubChannels {
		items, usedFallback, err := f.fetchSubChannel(ctx, sub)
		if err != nil {
			if _, ok := err.(*errs.SourcePermanentError); ok {
				lastErr = err
				f.log.Warnf("sub-channel %s permanently failed: %v", sub, err)
				continue
			}
			lastErr = err
			f.log.Warnf("sub-channel %s failed: %v", sub, err)
			continue
		}
		anySucceeded = true
		if usedFallback {
			stats.UsedFallback = true
		}
		allItems = append(allItems, items...)
	}

	if !anySucceeded && len(f.cfg.SubChannels) > 0 {
		if lastErr != nil {
			return nil, stats, lastErr
		}
		return nil, stats, &errs.SourceTransientError{Source: f.Name(), Err: fmt.Errorf("no sub-channels returned results")}
	}

	filtered := f.applyQualityFilter(allItems)
	stats.ItemsFetched = len(filtered)
	return filtered, stats, nil
}

// fetchSubChannel retrieves and merges every listing for one sub-channel,
// falling back to the wider time window if the primary window yields fewer
// than fallback_threshold items.
func (f *ForumFetcher) fetchSubChannel(ctx context.Context, sub string) ([]model.RawItem, bool, error) {
	cutoff := f.now().Add(-time.Duration(f.cfg.WindowHours) * time.Hour)
	items, err := f.mergeListings(ctx, sub, cutoff)
	if err != nil {
		return nil, false, err
	}
	if len(items) >= f.cfg.FallbackThreshold || f.cfg.FallbackWindowHours <= f.cfg.WindowHours {
		return items, false, nil
	}

	fallbackCutoff := f.now().Add(-time.Duration(f.cfg.FallbackWindowHours) * time.Hour)
	fallbackItems, err := f.mergeListings(ctx, sub, fallbackCutoff)
	if err != nil {
		return items, false, nil
	}
	return fallbackItems, true, nil
}

// mergeListings fetches every listing order for sub and de-duplicates by
// URL, keeping the first occurrence (listings are iterated in a fixed
// order so the result is deterministic).
func (f *ForumFetcher) mergeListings(ctx context.Context, sub string, cutoff time.Time) ([]model.RawItem, error) {
	seen := make(map[string]bool)
	var merged []model.RawItem

	for _, l := range allListings {
		posts, err := f.fetchListing(ctx, sub, l)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			postedAt := time.Unix(p.CreatedAt, 0).UTC()
			if postedAt.Before(cutoff) {
				continue
			}
			norm := normalizeURL(p.URL)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			merged = append(merged, model.RawItem{
				SourceKind:       model.SourceForum,
				SourceSubchannel: sub,
				Title:            p.Title,
				Body:             normalizeHTML(p.Body),
				URL:              norm,
				PostedAt:         postedAt,
				Engagement:       model.Engagement{Upvotes: p.Upvotes, Comments: p.Comments},
				ContentHash:      contentHash(p.Title, p.Body),
			})
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].PostedAt.After(merged[j].PostedAt) })
	return merged, nil
}

func (f *ForumFetcher) fetchListing(ctx context.Context, sub string, l listing) ([]forumPost, error) {
	if err := wait(ctx, f.limiter); err != nil {
		return nil, &errs.Cancelled{Err: err}
	}

	url := fmt.Sprintf("%s/r/%s/%s.json", f.baseURL, sub, l)
	body, err := fetchCached(ctx, f.cache, httpcache.Key(http.MethodGet, url), f.now, func() ([]byte, int, error) {
		resp, err := doWithRetry(ctx, f.client, f.Name(), func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", "application/json")
			return req, nil
		})
		if err != nil {
			return nil, 0, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, &errs.SourceTransientError{Source: f.Name(), Err: err}
		}
		return b, resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}

	var posts []forumPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, &errs.SourcePermanentError{Source: f.Name(), Err: fmt.Errorf("decoding listing %s/%s: %w", sub, l, err)}
	}
	return posts, nil
}

// applyQualityFilter drops low-engagement items (upvotes < min_upvotes
// AND comments < min_comments) unless their title mentions a tier-1
// vendor alias.
func (f *ForumFetcher) applyQualityFilter(items []model.RawItem) []model.RawItem {
	kept := make([]model.RawItem, 0, len(items))
	for _, it := range items {
		lowEngagement := it.Engagement.Upvotes < f.cfg.MinUpvotes && it.Engagement.Comments < f.cfg.MinComments
		if !lowEngagement {
			kept = append(kept, it)
			continue
		}
		if f.dict != nil && mentionsTier1(f.dict, it.Title) {
			kept = append(kept, it)
		}
	}
	return kept
}

func mentionsTier1(dict VendorMatcher, title string) bool {
	for v := range dict.Match(title).Vendors {
		if dict.Tier(v) == 1 {
			return true
		}
	}
	return false
}
