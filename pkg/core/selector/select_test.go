package selector

import (
	"testing"
	"time"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/scorer"
)

func scoredItem(url string, total float64, upvotes, comments int, businessCritical bool) model.ScoredItem {
	terms := map[string][]string{}
	if businessCritical {
		terms[scorer.CatBusinessImpact] = []string{"material impact"}
	}
	return model.ScoredItem{
		RawItem: model.RawItem{
			URL:        url,
			PostedAt:   time.Now(),
			Engagement: model.Engagement{Upvotes: upvotes, Comments: comments},
		},
		Score: model.Score{Total: total, MatchedTerms: terms, MultipliersApplied: map[string]float64{}},
	}
}

func TestSelectFillsBusinessCriticalBucketFirst(t *testing.T) {
	items := []model.ScoredItem{
		scoredItem("https://x.test/critical", 3.0, 0, 0, true),
		scoredItem("https://x.test/plain1", 1.0, 0, 0, false),
		scoredItem("https://x.test/plain2", 0.5, 0, 0, false),
	}
	cfg := config.SelectorConfig{K: 3, BucketPct: config.BucketPct{Critical: 0.4, Engagement: 0.2, Relevance: 0.3}}
	out := Select(items, cfg)
	if len(out) == 0 || out[0].URL != "https://x.test/critical" {
		t.Fatalf("expected the business-critical item first, got %+v", out)
	}
}

func TestSelectTieBreakFavorsRelevanceOverRawEngagement(t *testing.T) {
	lowRelevanceHighEngagement := scoredItem("https://x.test/viral", 1.0, 500, 500, false)
	highRelevanceModerateEngagement := scoredItem("https://x.test/relevant", 8.0, 10, 5, false)

	items := []model.ScoredItem{lowRelevanceHighEngagement, highRelevanceModerateEngagement}
	cfg := config.SelectorConfig{K: 2, BucketPct: config.BucketPct{Critical: 0.4, Engagement: 0.2, Relevance: 0.3}}
	out := Select(items, cfg)
	if len(out) != 2 {
		t.Fatalf("expected both items selected, got %d", len(out))
	}
	if out[0].URL != "https://x.test/relevant" {
		t.Fatalf("expected high-relevance item ranked first, got %s first", out[0].URL)
	}
}

func TestSelectRespectsCapacityK(t *testing.T) {
	var items []model.ScoredItem
	for i := 0; i < 10; i++ {
		items = append(items, scoredItem("https://x.test/"+string(rune('a'+i)), float64(i), 0, 0, false))
	}
	cfg := config.SelectorConfig{K: 3, BucketPct: config.BucketPct{Critical: 0.4, Engagement: 0.2, Relevance: 0.3}}
	out := Select(items, cfg)
	if len(out) != 3 {
		t.Fatalf("expected exactly K=3 items, got %d", len(out))
	}
}
