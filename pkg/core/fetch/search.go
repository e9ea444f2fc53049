package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/priceintel/pricingintel/internal/errs"
	"github.com/priceintel/pricingintel/internal/xlog"
	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/httpcache"
	"github.com/priceintel/pricingintel/pkg/core/model"
)

// searchResult mirrors the subset of an upstream web-search API's result
// payload this pipeline consumes.
type searchResult struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	PublishedAt string `json:"published_at"`
}

type searchResponse struct {
	Items []searchResult `json:"items"`
}

// SearchFetcher runs a configured set of query templates against a
// web-search API, expanding "{year}" placeholders and applying the
// configured date restriction and per-query result cap.
type SearchFetcher struct {
	cfg     config.SearchConfig
	client  *http.Client
	log     *xlog.Logger
	limiter *rate.Limiter
	baseURL string
	now     func() time.Time
	cache   CacheStore
}

// NewSearchFetcher builds a search fetcher. baseURL points at the upstream
// search API root; ratePerSec reuses the shared per-source limiter shape.
func NewSearchFetcher(cfg config.SearchConfig, baseURL string, ratePerSec float64, now func() time.Time) *SearchFetcher {
	if now == nil {
		now = time.Now
	}
	return &SearchFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     xlog.New("fetch.search"),
		limiter: newLimiter(ratePerSec),
		baseURL: baseURL,
		now:     now,
	}
}

// SetCache attaches the optional content-addressed HTTP cache. Passing
// nil disables caching.
func (f *SearchFetcher) SetCache(c CacheStore) { f.cache = c }

func (f *SearchFetcher) Name() string { return "search" }

// Fetch runs every configured query template and merges the results,
// de-duplicating by normalized URL.
func (f *SearchFetcher) Fetch(ctx context.Context) ([]model.RawItem, Stats, error) {
	stats := Stats{Source: f.Name()}
	seen := make(map[string]bool)
	var items []model.RawItem
	var lastErr error
	anySucceeded := false

	year := f.now().Year()
	for _, tmpl := range f.cfg.Queries {
		query := strings.ReplaceAll(tmpl, "{year}", strconv.Itoa(year))
		results, err := f.runQuery(ctx, query)
		if err != nil {
			if _, ok := err.(*errs.SourcePermanentError); ok {
				lastErr = err
				f.log.Warnf("query %q permanently failed: %v", query, err)
				continue
			}
			lastErr = err
			f.log.Warnf("query %q failed: %v", query, err)
			continue
		}
		anySucceeded = true
		for _, r := range results {
			norm := normalizeURL(r.Link)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			items = append(items, model.RawItem{
				SourceKind:  model.SourceSearch,
				Title:       r.Title,
				Body:        normalizeHTML(r.Snippet),
				URL:         norm,
				PostedAt:    parsePublished(r.PublishedAt, f.now()),
				ContentHash: contentHash(r.Title, r.Snippet),
			})
		}
	}

	if !anySucceeded && len(f.cfg.Queries) > 0 {
		if lastErr != nil {
			return nil, stats, lastErr
		}
		return nil, stats, &errs.SourceTransientError{Source: f.Name(), Err: fmt.Errorf("no queries returned results")}
	}

	stats.ItemsFetched = len(items)
	return items, stats, nil
}

func (f *SearchFetcher) runQuery(ctx context.Context, query string) ([]searchResult, error) {
	if err := wait(ctx, f.limiter); err != nil {
		return nil, &errs.Cancelled{Err: err}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("num", strconv.Itoa(f.cfg.ResultsPerQuery))
	if f.cfg.DateRestriction != "" {
		q.Set("dateRestrict", f.cfg.DateRestriction)
	}
	reqURL := fmt.Sprintf("%s/search?%s", f.baseURL, q.Encode())

	body, err := fetchCached(ctx, f.cache, httpcache.Key(http.MethodGet, reqURL), f.now, func() ([]byte, int, error) {
		resp, err := doWithRetry(ctx, f.client, f.Name(), func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, reqURL, nil)
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

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &errs.SourcePermanentError{Source: f.Name(), Err: fmt.Errorf("decoding search response: %w", err)}
	}

	results := parsed.Items
	if len(results) > f.cfg.ResultsPerQuery && f.cfg.ResultsPerQuery > 0 {
		results = results[:f.cfg.ResultsPerQuery]
	}
	return results, nil
}

// parsePublished parses the upstream API's RFC3339 published timestamp,
// falling back to "now" (treated as fresh) when absent or malformed, since
// search APIs do not always surface a reliable publish date.
func parsePublished(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}
	return t.UTC()
}
