package vendoranalytics

import (
	"testing"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

type stubDict struct {
	tiers     map[string]int
	acquirers map[string][]string
}

func (d stubDict) Tier(v string) int            { return d.tiers[v] }
func (d stubDict) AcquirersOf(v string) []string { return d.acquirers[v] }

func item(vendors ...string) model.ScoredItem {
	return model.ScoredItem{Score: model.Score{VendorsDetectedList: vendors}}
}

func TestRankAppliesTierWeights(t *testing.T) {
	dict := stubDict{tiers: map[string]int{"vmware": 1, "datto": 3}}
	items := []model.ScoredItem{item("vmware"), item("datto")}
	out := Rank(items, dict, 20)
	byVendor := map[string]model.VendorRollupEntry{}
	for _, e := range out {
		byVendor[e.Vendor] = e
	}
	if byVendor["vmware"].Mentions != 3.0 {
		t.Fatalf("expected vmware (tier1) mentions=3.0, got %v", byVendor["vmware"].Mentions)
	}
	if byVendor["datto"].Mentions != 1.5 {
		t.Fatalf("expected datto (tier3) mentions=1.5, got %v", byVendor["datto"].Mentions)
	}
}

func TestRankAcquisitionCoCredit(t *testing.T) {
	dict := stubDict{
		tiers:     map[string]int{"vmware": 1, "broadcom": 1},
		acquirers: map[string][]string{"vmware": {"broadcom"}},
	}
	items := []model.ScoredItem{item("vmware")}
	out := Rank(items, dict, 20)
	byVendor := map[string]model.VendorRollupEntry{}
	for _, e := range out {
		byVendor[e.Vendor] = e
	}
	if byVendor["vmware"].Mentions != 3.0 {
		t.Fatalf("expected vmware direct mention=3.0, got %v", byVendor["vmware"].Mentions)
	}
	if byVendor["broadcom"].Mentions != 0.5 {
		t.Fatalf("expected broadcom co-credit = 0.5 flat, got %v", byVendor["broadcom"].Mentions)
	}
}

func TestRankTopNTruncates(t *testing.T) {
	dict := stubDict{tiers: map[string]int{}}
	var items []model.ScoredItem
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		items = append(items, item(v))
	}
	out := Rank(items, dict, 2)
	if len(out) != 2 {
		t.Fatalf("expected top-2 truncation, got %d entries", len(out))
	}
}
