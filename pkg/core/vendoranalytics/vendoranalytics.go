// Package vendoranalytics implements tier-weighted vendor mention ranking
// over the selected item set, with acquisition-chain co-credit.
package vendoranalytics

import (
	"sort"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

const (
	tier1Weight = 3.0
	tier2Weight = 2.0
	tier3Weight = 1.5
	tier4Weight = 1.0

	// acquisitionCoCredit is the fractional credit an acquirer receives
	// for each mention of one of its acquisition targets.
	acquisitionCoCredit = 0.5

	defaultTopN = 20
)

// Dictionary is the subset of vendordict.Dictionary this package needs.
type Dictionary interface {
	Tier(vendor string) int
	AcquirersOf(vendor string) []string
}

func tierWeight(tier int) float64 {
	switch tier {
	case 1:
		return tier1Weight
	case 2:
		return tier2Weight
	case 3:
		return tier3Weight
	default:
		return tier4Weight
	}
}

// Rank computes the tier-weighted ranking over the selected items' vendor
// mentions, applying acquisition co-credit, and returns the top N entries
// (default 20) sorted by score desc, vendor name asc as a tie-break.
func Rank(items []model.ScoredItem, dict Dictionary, topN int) []model.VendorRollupEntry {
	if topN <= 0 {
		topN = defaultTopN
	}

	scores := make(map[string]float64)
	for _, it := range items {
		for _, v := range it.Score.VendorsDetectedList {
			scores[v] += tierWeight(dict.Tier(v))
			for _, acquirer := range dict.AcquirersOf(v) {
				scores[acquirer] += acquisitionCoCredit
			}
		}
	}

	vendors := make([]string, 0, len(scores))
	for v := range scores {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	sort.SliceStable(vendors, func(i, j int) bool {
		return scores[vendors[i]] > scores[vendors[j]]
	})

	if len(vendors) > topN {
		vendors = vendors[:topN]
	}

	out := make([]model.VendorRollupEntry, 0, len(vendors))
	for _, v := range vendors {
		out = append(out, model.VendorRollupEntry{
			Vendor:   v,
			Mentions: scores[v],
			Tier:     dict.Tier(v),
		})
	}
	return out
}
