package summarize

import (
	"context"
	"testing"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
)

type stubProvider struct {
	responses []string
	calls     int
}

func (p *stubProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, int, error) {
	i := p.calls
	p.calls++
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	return p.responses[i], 42, nil
}

type stubTiers struct{ tiers map[string]int }

func (s stubTiers) Tier(v string) int { return s.tiers[v] }

func testBindings() []model.SourceBinding {
	items := []model.ScoredItem{
		{RawItem: model.RawItem{Title: "VMware raises core licensing fees", URL: "https://x.test/1"},
			Score: model.Score{Urgency: model.UrgencyHigh, VendorsDetectedList: []string{"vmware"}}},
		{RawItem: model.RawItem{Title: "Broadcom integration update", URL: "https://x.test/2"},
			Score: model.Score{Urgency: model.UrgencyMedium, VendorsDetectedList: []string{"broadcom"}}},
	}
	return Bind(items)
}

func TestSummarizeDropsOutOfRangeSourceID(t *testing.T) {
	bindings := testBindings()
	provider := &stubProvider{responses: []string{
		`{"insights":[{"role":"pricing","text":"Price jump 20% [SOURCE_ID:99]","claimed_priority":"alpha"}],"executive_summary":"x"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if len(result.Insights) != 0 {
		t.Fatalf("expected out-of-range SOURCE_ID to be dropped, got %d insights", len(result.Insights))
	}
	if result.Dropped != 1 {
		t.Fatalf("expected Dropped=1, got %d", result.Dropped)
	}
}

func TestSummarizeCollapsesDuplicateInsights(t *testing.T) {
	bindings := testBindings()
	provider := &stubProvider{responses: []string{
		`{"insights":[
			{"role":"pricing","text":"VMware raised licensing 20% [SOURCE_ID:1]","claimed_priority":"alpha"},
			{"role":"pricing","text":"vmware RAISED licensing 20%   [SOURCE_ID:1]","claimed_priority":"alpha"}
		],"executive_summary":"x"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if len(result.Insights) != 1 {
		t.Fatalf("expected duplicate insight collapsed to 1, got %d", len(result.Insights))
	}
}

func TestSummarizeDerivesHighConfidenceFromThreeSourcesAndQuantifier(t *testing.T) {
	items := make([]model.ScoredItem, 3)
	for i := range items {
		items[i] = model.ScoredItem{RawItem: model.RawItem{Title: "x", URL: "https://x.test"}, Score: model.Score{Urgency: model.UrgencyLow}}
	}
	bindings := Bind(items)
	provider := &stubProvider{responses: []string{
		`{"insights":[{"role":"strategy","text":"Prices up 20% [SOURCE_ID:1][SOURCE_ID:2][SOURCE_ID:3]","claimed_priority":"gamma"}],"executive_summary":"x"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if len(result.Insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(result.Insights))
	}
	if result.Insights[0].Confidence != model.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", result.Insights[0].Confidence)
	}
}

func TestSummarizePriorityEscalationOnlyUpward(t *testing.T) {
	bindings := testBindings() // source 1 is urgency-high -> derived alpha
	provider := &stubProvider{responses: []string{
		`{"insights":[{"role":"pricing","text":"Change noted [SOURCE_ID:1]","claimed_priority":"gamma"}],"executive_summary":"x"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if len(result.Insights) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(result.Insights))
	}
	if result.Insights[0].Priority != model.PriorityAlpha {
		t.Fatalf("expected derived alpha priority to win over a lower claim, got %s", result.Insights[0].Priority)
	}
}

func TestSummarizeRetriesWithRepairPromptOnMalformedJSON(t *testing.T) {
	bindings := testBindings()
	provider := &stubProvider{responses: []string{
		`not json at all`,
		`{"insights":[{"role":"pricing","text":"Recovered [SOURCE_ID:1]","claimed_priority":"alpha"}],"executive_summary":"recovered"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if result.Failed {
		t.Fatal("expected the repair retry to succeed, got Failed=true")
	}
	if provider.calls != 2 {
		t.Fatalf("expected exactly 2 provider calls (original + repair), got %d", provider.calls)
	}
}

func TestSummarizeReturnsFailedWithNoFabricatedInsightsAfterBothAttemptsFail(t *testing.T) {
	bindings := testBindings()
	provider := &stubProvider{responses: []string{"garbage", "still garbage"}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if !result.Failed {
		t.Fatal("expected Failed=true after both attempts fail to parse")
	}
	if len(result.Insights) != 0 {
		t.Fatalf("expected zero insights on failure (no fabrication), got %d", len(result.Insights))
	}
}

func TestSummarizeRedundancyFlagWithoutVendorOrQuantifier(t *testing.T) {
	items := []model.ScoredItem{
		{RawItem: model.RawItem{Title: "generic post", URL: "https://x.test/1"}, Score: model.Score{Urgency: model.UrgencyLow}},
	}
	bindings := Bind(items)
	provider := &stubProvider{responses: []string{
		`{"insights":[{"role":"strategy","text":"Something shifted [SOURCE_ID:1]","claimed_priority":"gamma"}],"executive_summary":"x"}`,
	}}
	s := New(provider, stubTiers{}, config.ReportConfig{ExcerptMaxChars: 500}, config.LLMConfig{TimeoutSec: 90})
	result := s.Summarize(context.Background(), bindings)
	if len(result.Insights) != 1 || !result.Insights[0].Redundant {
		t.Fatalf("expected insight flagged redundant (no vendor, no quantifier), got %+v", result.Insights)
	}
}
