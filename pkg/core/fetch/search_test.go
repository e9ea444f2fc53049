package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/priceintel/pricingintel/pkg/config"
)

func TestSearchFetcherExpandsYearAndDedups(t *testing.T) {
	var gotQueries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotQueries = append(gotQueries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"title":"Vendor X price hike","snippet":"details","link":"https://news.test/a?utm_source=x","published_at":"2026-01-01T00:00:00Z"},
			{"title":"Duplicate","snippet":"details","link":"https://news.test/a?utm_source=y","published_at":"2026-01-02T00:00:00Z"}
		]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.SearchConfig{
		Queries:         []string{"pricing {year} increase"},
		ResultsPerQuery: 10,
		DateRestriction: "d7",
	}
	f := NewSearchFetcher(cfg, srv.URL, 1000, nil)
	items, stats, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(gotQueries) != 1 {
		t.Fatalf("expected exactly 1 query issued, got %d", len(gotQueries))
	}
	if strings.Contains(gotQueries[0], "{year}") {
		t.Fatalf("expected {year} expanded, got query %q", gotQueries[0])
	}
	if len(items) != 1 {
		t.Fatalf("expected normalized-URL dedup to collapse to 1 item, got %d", len(items))
	}
	if stats.ItemsFetched != 1 {
		t.Fatalf("stats.ItemsFetched = %d, want 1", stats.ItemsFetched)
	}
}

