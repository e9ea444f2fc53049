package scorer

import (
	"testing"
	"time"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/patterns"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
)

func testDict(t *testing.T) *vendordict.Dictionary {
	t.Helper()
	d, err := vendordict.Load("../../../testdata/vendors.yaml")
	if err != nil {
		t.Fatalf("load vendor dictionary: %v", err)
	}
	return d
}

func testTable() *patterns.Table {
	return patterns.Compile(map[string][]string{
		CatPricing:                 {"price increase", "licensing increase", "core-licensing"},
		CatUrgencyHigh:              {"effective immediately"},
		CatUrgencyMedium:            {"review pricing"},
		CatSupply:                  {"supply shortage"},
		CatStrategy:                {"strategic shift"},
		CatTechnology:               {"platform migration"},
		CatCloudSecurity:            {"cnapp", "cspm"},
		CatMAIntel:                  {"post-acquisition audit"},
		CatMSPContext:               {"msp", "channel partner"},
		CatBusinessImpact:           {"material impact"},
		catPartnershipGeneral:       {"partner program"},
		catPartnershipTierChange:    {"partner tier change"},
		catPartnershipRelationship:  {"business relationship change"},
		catTimeDeadline:             {"by end of quarter"},
		catScale:                    {"all partners"},
	})
}

// VMware 50% core-licensing increase post.
func TestScoreS1VMwareLicensingIncrease(t *testing.T) {
	dict := testDict(t)
	table := testTable()
	cfg := config.Default().Scoring
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	eng := NewEngine(table, dict, cfg, func() time.Time { return now })

	item := model.RawItem{
		SourceKind: model.SourceForum,
		Title:      "VMware 50% core-licensing increase from $50 to $76",
		Body:       "Effective immediately, core-licensing costs rise.",
		URL:        "https://example.com/vmware-increase",
		PostedAt:   now.Add(-3 * time.Hour),
		Engagement: model.Engagement{Upvotes: 120, Comments: 47},
	}

	score := eng.Score(item)
	if !score.VendorsDetected["vmware"] {
		t.Fatalf("expected vmware detected, got %+v", score.VendorsDetected)
	}
	if score.Urgency != model.UrgencyHigh {
		t.Fatalf("expected urgency high, got %v", score.Urgency)
	}
	if len(score.MatchedTerms[CatPricing]) == 0 {
		t.Fatalf("expected pricing category hit")
	}
	if len(score.MatchedTerms[CatUrgencyHigh]) == 0 {
		t.Fatalf("expected urgency_high category hit")
	}
	if score.Total <= 0 {
		t.Fatalf("expected positive total, got %v", score.Total)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	dict := testDict(t)
	table := testTable()
	cfg := config.Default().Scoring
	now := time.Now()
	eng := NewEngine(table, dict, cfg, func() time.Time { return now })

	base := model.RawItem{
		Title:    "Generic vendor update",
		Body:     "Nothing notable here.",
		URL:      "https://example.com/a",
		PostedAt: now,
	}
	withKeyword := base
	withKeyword.Body = base.Body + " price increase announced."

	scoreBase := eng.Score(base)
	scoreMore := eng.Score(withKeyword)
	if scoreMore.Total < scoreBase.Total {
		t.Fatalf("adding a matched keyword decreased total: %v -> %v", scoreBase.Total, scoreMore.Total)
	}
}

func TestMSPMultiplierAppliedOnce(t *testing.T) {
	dict := testDict(t)
	table := testTable()
	cfg := config.Default().Scoring
	now := time.Now()
	eng := NewEngine(table, dict, cfg, func() time.Time { return now })

	item := model.RawItem{
		Title:    "MSP channel partner pricing shift",
		Body:     "MSP and channel partner terms changed. MSP again.",
		URL:      "https://example.com/msp",
		PostedAt: now,
	}
	score := eng.Score(item)
	count := 0
	for k := range score.MultipliersApplied {
		if k == "msp_context_multiplier" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected msp multiplier recorded exactly once, got %d", count)
	}
}

// Text mentioning only an acquisition target detects the target and not
// its acquirer; the acquirer's 0.5 co-credit is applied later, in
// vendoranalytics, and verified there.
func TestAcquisitionTargetOnlyDetectsTarget(t *testing.T) {
	dict := testDict(t)
	table := testTable()
	cfg := config.Default().Scoring
	now := time.Now()
	eng := NewEngine(table, dict, cfg, func() time.Time { return now })

	item := model.RawItem{
		Title:    "VMware licensing terms updated for enterprise customers",
		Body:     "No mention of the parent company here.",
		URL:      "https://example.com/vmware-only",
		PostedAt: now,
	}
	score := eng.Score(item)
	if !score.VendorsDetected["vmware"] {
		t.Fatalf("expected vmware detected")
	}
	if score.VendorsDetected["broadcom"] {
		t.Fatalf("broadcom should not be directly detected from text mentioning only vmware")
	}
}
