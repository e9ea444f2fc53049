package selector

import (
	"sort"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/scorer"
)

// bucket is one priority tier of the selection hierarchy.
type bucket int

const (
	bucketCritical bucket = iota
	bucketEngagement
	bucketRelevance
	bucketRemainder
)

// maxEngagementNormalizer caps the engagement score used for the 0-1
// normalization in the tie-break key, so a single viral outlier cannot
// compress the rest of the distribution to near-zero.
const maxEngagementNormalizer = 500.0

// Select ranks scored items into a capacity-K list using the priority
// buckets: business-critical, high-engagement+relevance, high relevance,
// then remainder by total score. Within each bucket items are
// ordered by the composite tie-break key 0.7*total + 0.3*normalized
// engagement, so a low-relevance high-engagement item never outranks a
// high-relevance item with moderate engagement.
func Select(items []model.ScoredItem, cfg config.SelectorConfig) []model.ScoredItem {
	k := cfg.K
	if k <= 0 {
		k = len(items)
	}
	caps := bucketCaps(k, cfg.BucketPct)

	buckets := map[bucket][]model.ScoredItem{}
	assigned := make(map[string]bool)

	for _, it := range items {
		b := classify(it)
		buckets[b] = append(buckets[b], it)
	}
	for b := range buckets {
		sortByTieBreak(buckets[b])
	}

	var selected []model.ScoredItem
	for _, b := range []bucket{bucketCritical, bucketEngagement, bucketRelevance} {
		bucketCap := caps[b]
		for _, it := range buckets[b] {
			if len(selected) >= k {
				return selected
			}
			key := dedupKey(it.RawItem)
			if assigned[key] {
				continue
			}
			if countInBucket(selected, b, classify) >= bucketCap {
				break
			}
			assigned[key] = true
			selected = append(selected, it)
		}
	}

	var remainder []model.ScoredItem
	for _, it := range items {
		key := dedupKey(it.RawItem)
		if !assigned[key] {
			remainder = append(remainder, it)
		}
	}
	sortByTotalDesc(remainder)
	for _, it := range remainder {
		if len(selected) >= k {
			break
		}
		selected = append(selected, it)
	}

	return selected
}

func countInBucket(selected []model.ScoredItem, b bucket, classify func(model.ScoredItem) bucket) int {
	n := 0
	for _, it := range selected {
		if classify(it) == b {
			n++
		}
	}
	return n
}

func bucketCaps(k int, pct config.BucketPct) map[bucket]int {
	return map[bucket]int{
		bucketCritical:   int(float64(k) * pct.Critical),
		bucketEngagement: int(float64(k) * pct.Engagement),
		bucketRelevance:  int(float64(k) * pct.Relevance),
	}
}

// classify assigns an item to the highest-priority bucket it qualifies
// for; items matching none fall to the remainder.
func classify(it model.ScoredItem) bucket {
	if isBusinessCritical(it) {
		return bucketCritical
	}
	if isHighEngagementRelevance(it) {
		return bucketEngagement
	}
	if it.Score.Total >= 7.0 {
		return bucketRelevance
	}
	return bucketRemainder
}

func isBusinessCritical(it model.ScoredItem) bool {
	if len(it.Score.MatchedTerms[scorer.CatBusinessImpact]) > 0 {
		return true
	}
	if it.Score.MultipliersApplied[scorer.MultiplierPartnerTierChange] > 0 {
		return true
	}
	if len(it.Score.MatchedTerms[scorer.CatMAIntel]) > 0 {
		return true
	}
	return false
}

func isHighEngagementRelevance(it model.ScoredItem) bool {
	highEngagement := it.Engagement.Upvotes >= 50 || it.Engagement.Comments >= 20
	return highEngagement && it.Score.Total >= 4.0
}

func sortByTieBreak(items []model.ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := tieBreakKey(items[i]), tieBreakKey(items[j])
		if ki != kj {
			return ki > kj
		}
		if !items[i].PostedAt.Equal(items[j].PostedAt) {
			return items[i].PostedAt.After(items[j].PostedAt)
		}
		return items[i].URL < items[j].URL
	})
}

func tieBreakKey(it model.ScoredItem) float64 {
	normEngagement := float64(it.Engagement.Score()) / maxEngagementNormalizer
	if normEngagement > 1.0 {
		normEngagement = 1.0
	}
	return 0.7*it.Score.Total + 0.3*normEngagement
}

// sortByTotalDesc orders the leftover (unbucketed) items purely by raw
// score, unlike the bucketed tie-break key which blends in normalized
// engagement.
func sortByTotalDesc(items []model.ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score.Total != items[j].Score.Total {
			return items[i].Score.Total > items[j].Score.Total
		}
		if !items[i].PostedAt.Equal(items[j].PostedAt) {
			return items[i].PostedAt.After(items[j].PostedAt)
		}
		return items[i].URL < items[j].URL
	})
}
