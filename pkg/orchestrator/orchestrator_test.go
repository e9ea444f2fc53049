package orchestrator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/fetch"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/patterns"
	"github.com/priceintel/pricingintel/pkg/core/scorer"
	"github.com/priceintel/pricingintel/pkg/core/summarize"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
)

type stubFetcher struct {
	name  string
	items []model.RawItem
	err   error
}

func (f stubFetcher) Name() string { return f.name }
func (f stubFetcher) Fetch(ctx context.Context) ([]model.RawItem, fetch.Stats, error) {
	if f.err != nil {
		return nil, fetch.Stats{Source: f.name}, f.err
	}
	return f.items, fetch.Stats{Source: f.name, ItemsFetched: len(f.items)}, nil
}

type stubLLM struct{ response string }

func (s stubLLM) Generate(ctx context.Context, systemPrompt, prompt string) (string, int, error) {
	return s.response, 0, nil
}

func testDict(t *testing.T) *vendordict.Dictionary {
	t.Helper()
	dict, err := vendordict.Load("../../testdata/vendors.yaml")
	if err != nil {
		t.Fatalf("loading test vendor dictionary: %v", err)
	}
	return dict
}

func TestRunAssemblesReportFromFetchedItems(t *testing.T) {
	dict := testDict(t)
	table := patterns.Compile(map[string][]string{scorer.CatPricing: {"price increase"}})
	now := func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	engine := scorer.NewEngine(table, dict, config.Default().Scoring, now)

	items := []model.RawItem{
		{
			SourceKind: model.SourceForum,
			Title:      "Vendor announces price increase",
			Body:       "details",
			URL:        "https://forum.test/1",
			PostedAt:   now(),
			Engagement: model.Engagement{Upvotes: 10, Comments: 5},
		},
	}
	fetchers := []fetch.Fetcher{stubFetcher{name: "forum", items: items}}

	llm := stubLLM{response: `{"executive_summary":"ok","insights":[{"role":"pricing","text":"[SOURCE_ID:1] price moved","claimed_priority":"beta"}]}`}
	summarizer := summarize.New(llm, DictAdapter{D: dict}, config.Default().Report, config.Default().LLM)

	outDir := t.TempDir()
	orch := New(fetchers, engine, dict, summarizer, config.Default().Selector, config.RunConfig{GlobalTimeoutSec: 30}, outDir, now)

	rpt, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rpt.Sources) != 1 {
		t.Fatalf("expected 1 bound source, got %d", len(rpt.Sources))
	}
	if rpt.RunStats.ItemsFetchedPerSource["forum"] != 1 {
		t.Fatalf("expected forum fetch count 1, got %d", rpt.RunStats.ItemsFetchedPerSource["forum"])
	}

	entries, err := os.ReadDir(outDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one report artifact written, got %v err=%v", entries, err)
	}
}

func TestRunReturnsTotalFetchFailureWhenAllSourcesEmpty(t *testing.T) {
	dict := testDict(t)
	table := patterns.Compile(map[string][]string{})
	now := time.Now
	engine := scorer.NewEngine(table, dict, config.Default().Scoring, now)
	fetchers := []fetch.Fetcher{stubFetcher{name: "forum"}, stubFetcher{name: "search"}}
	summarizer := summarize.New(stubLLM{}, DictAdapter{D: dict}, config.Default().Report, config.Default().LLM)

	orch := New(fetchers, engine, dict, summarizer, config.Default().Selector, config.RunConfig{GlobalTimeoutSec: 30}, t.TempDir(), now)

	_, err := orch.Run(context.Background())
	if err == nil {
		t.Fatal("expected TotalFetchFailure, got nil")
	}
}

func TestRunAggregatesPartialFailuresWithoutFailingRun(t *testing.T) {
	dict := testDict(t)
	table := patterns.Compile(map[string][]string{})
	now := time.Now
	engine := scorer.NewEngine(table, dict, config.Default().Scoring, now)
	good := stubFetcher{name: "forum", items: []model.RawItem{{URL: "https://forum.test/2", PostedAt: now()}}}
	bad := stubFetcher{name: "search", err: context.DeadlineExceeded}
	summarizer := summarize.New(stubLLM{response: `{"executive_summary":"ok","insights":[]}`}, DictAdapter{D: dict}, config.Default().Report, config.Default().LLM)

	orch := New([]fetch.Fetcher{good, bad}, engine, dict, summarizer, config.Default().Selector, config.RunConfig{GlobalTimeoutSec: 30}, t.TempDir(), now)

	rpt, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rpt.RunStats.PartialFailures) != 1 {
		t.Fatalf("expected 1 partial failure recorded, got %v", rpt.RunStats.PartialFailures)
	}
}
