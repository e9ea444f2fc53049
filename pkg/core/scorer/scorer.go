// Package scorer implements the pure scoring function: a compiled-pattern
// keyword matcher with domain-specific boosts, urgency classification, and
// a five-axis revenue-impact model, evaluated over a read-only
// patterns.Table built once at startup.
package scorer

import (
	"sort"
	"time"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/patterns"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
)

// Category name constants. These must match the keys used when compiling
// the patterns.Table passed to Score.
const (
	CatPricing                   = "pricing"
	CatUrgencyHigh                = "urgency_high"
	CatUrgencyMedium              = "urgency_medium"
	CatSupply                    = "supply"
	CatStrategy                  = "strategy"
	CatTechnology                = "technology"
	CatCloudSecurity             = "cloud_security"
	CatMAIntel                   = "ma_intel"
	CatMSPContext                = "msp_context"
	CatBusinessImpact            = "business_impact"
	catPartnershipGeneral        = "partnership_general"
	catPartnershipTierChange     = "partnership_tier_change"
	catPartnershipRelationship   = "partnership_relationship_change"
	catTimeDeadline              = "time_deadline"
	catScale                     = "scale"
)

// CatPartnership is the public, merged matched_terms key for the three
// internal partnership sub-categories.
const CatPartnership = "partnership"

// MultiplierPartnerTierChange is the MultipliersApplied key set when the
// partnership-tier-change pattern fires, so callers (the selector's
// business-critical bucket) can detect it without unmerging CatPartnership's
// matched terms.
const MultiplierPartnerTierChange = "partnership_tier_change_boost"

// Engine bundles the read-only inputs a Score call needs: the compiled
// pattern table, the vendor dictionary, and the scoring constants. It is
// built once at startup and passed through the pipeline explicitly,
// with no global mutable singletons.
type Engine struct {
	Patterns *patterns.Table
	Dict     *vendordict.Dictionary
	Cfg      config.ScoringConfig
	Now      func() time.Time
}

// NewEngine constructs a scoring Engine. now defaults to time.Now if nil.
func NewEngine(table *patterns.Table, dict *vendordict.Dictionary, cfg config.ScoringConfig, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{Patterns: table, Dict: dict, Cfg: cfg, Now: now}
}

func capAt(v, maxVal float64) float64 {
	if v > maxVal {
		return maxVal
	}
	return v
}

// Score is a pure function of item, the compiled pattern table, and the
// vendor dictionary (given the same Engine, the output is reproducible).
func (e *Engine) Score(item model.RawItem) model.Score {
	text := item.Title + "\n" + item.Body
	hits := e.Patterns.MatchAll(text)

	matchedTerms := make(map[string][]string)
	multipliers := make(map[string]float64)

	var total float64

	// 1. Keyword score.
	pricingHits := hits[CatPricing]
	total += capAt(float64(len(pricingHits))*e.Cfg.PricingWeight, e.Cfg.PricingCap)

	urgencyHighHits := hits[CatUrgencyHigh]
	total += capAt(float64(len(urgencyHighHits))*e.Cfg.UrgencyHighWeight, e.Cfg.UrgencyHighCap)

	urgencyMediumHits := hits[CatUrgencyMedium]
	total += capAt(float64(len(urgencyMediumHits))*e.Cfg.UrgencyMediumWeight, e.Cfg.UrgencyMediumCap)

	for _, minorCat := range []string{CatSupply, CatStrategy, CatTechnology} {
		minorHits := hits[minorCat]
		total += capAt(float64(len(minorHits))*e.Cfg.MinorCategoryWeight, e.Cfg.MinorCategoryCap)
		if len(minorHits) > 0 {
			matchedTerms[minorCat] = minorHits
		}
	}
	if len(pricingHits) > 0 {
		matchedTerms[CatPricing] = pricingHits
	}
	if len(urgencyHighHits) > 0 {
		matchedTerms[CatUrgencyHigh] = urgencyHighHits
	}
	if len(urgencyMediumHits) > 0 {
		matchedTerms[CatUrgencyMedium] = urgencyMediumHits
	}

	// 2. Vendor score.
	vendorMatch := e.Dict.Match(text)
	vendorCount := len(vendorMatch.Vendors)
	total += capAt(float64(vendorCount)*e.Cfg.VendorWeight, e.Cfg.VendorCap)
	hasTier1 := false
	for v := range vendorMatch.Vendors {
		if e.Dict.Tier(v) == 1 {
			hasTier1 = true
			break
		}
	}
	if hasTier1 {
		total += e.Cfg.Tier1VendorBonus
		multipliers["tier1_vendor_bonus"] = e.Cfg.Tier1VendorBonus
	}

	// 3. Recency.
	now := e.Now()
	age := now.Sub(item.PostedAt)
	switch {
	case age <= 24*time.Hour:
		total += e.Cfg.RecencyWithin24h
		multipliers["recency_24h"] = e.Cfg.RecencyWithin24h
	case age <= 7*24*time.Hour:
		total += e.Cfg.RecencyWithin7d
		multipliers["recency_7d"] = e.Cfg.RecencyWithin7d
	}

	// 4. Cloud-security boost.
	cloudSecurityHits := hits[CatCloudSecurity]
	if len(cloudSecurityHits) > 0 {
		matchedTerms[CatCloudSecurity] = cloudSecurityHits
	}
	if len(cloudSecurityHits) > 0 && len(pricingHits) > 0 {
		total += e.Cfg.CloudSecurityBoost
		multipliers["cloud_security_boost"] = e.Cfg.CloudSecurityBoost
		for v := range vendorMatch.Vendors {
			if e.Dict.IsCloudSecurityVendor(v) {
				total += e.Cfg.CloudSecurityVendorBonus
				multipliers["cloud_security_vendor_bonus"] = e.Cfg.CloudSecurityVendorBonus
				break
			}
		}
	}

	// 5. M&A intelligence boost.
	maHits := hits[CatMAIntel]
	if len(maHits) > 0 {
		matchedTerms[CatMAIntel] = maHits
	}
	if len(maHits) > 0 {
		acquisitionVendorInvolved := false
		tier1ConsolidatorInvolved := false
		for v := range vendorMatch.Vendors {
			if len(e.Dict.AcquirersOf(v)) > 0 {
				acquisitionVendorInvolved = true
			}
			if e.Dict.IsTier1Consolidator(v) {
				tier1ConsolidatorInvolved = true
			}
			for _, acq := range e.Dict.AcquirersOf(v) {
				if e.Dict.IsTier1Consolidator(acq) {
					tier1ConsolidatorInvolved = true
				}
			}
		}
		if acquisitionVendorInvolved {
			maBoost := e.Cfg.MABoost
			if tier1ConsolidatorInvolved {
				maBoost += e.Cfg.MATier1ConsolidatorBonus
			}
			maBoost = capAt(maBoost, e.Cfg.MACap)
			total += maBoost
			multipliers["ma_boost"] = maBoost
		}
	}

	// 6. Partnership boost: three independently-triggered flags, summed
	// then capped.
	generalHits := e.Patterns.MatchCategory(catPartnershipGeneral, text)
	tierChangeHits := e.Patterns.MatchCategory(catPartnershipTierChange, text)
	relationshipHits := e.Patterns.MatchCategory(catPartnershipRelationship, text)
	var partnershipBoost float64
	var mergedPartnership []string
	if len(generalHits) > 0 {
		partnershipBoost += e.Cfg.PartnerChangeBoost
		mergedPartnership = append(mergedPartnership, generalHits...)
	}
	if len(tierChangeHits) > 0 {
		partnershipBoost += e.Cfg.PartnerTierChangeBoost
		mergedPartnership = append(mergedPartnership, tierChangeHits...)
		// Exposed separately (rather than folded only into the merged
		// "partnership" category) so the selector's business-critical
		// bucket can detect a tier-change specifically.
		multipliers[MultiplierPartnerTierChange] = e.Cfg.PartnerTierChangeBoost
	}
	if len(relationshipHits) > 0 {
		partnershipBoost += e.Cfg.BusinessRelChangeBoost
		mergedPartnership = append(mergedPartnership, relationshipHits...)
	}
	if partnershipBoost > 0 {
		partnershipBoost = capAt(partnershipBoost, e.Cfg.PartnershipCap)
		total += partnershipBoost
		multipliers["partnership_boost"] = partnershipBoost
		matchedTerms[CatPartnership] = mergedPartnership
	}

	businessImpactHits := hits[CatBusinessImpact]
	if len(businessImpactHits) > 0 {
		matchedTerms[CatBusinessImpact] = businessImpactHits
	}

	// 7. MSP context multiplier: applied at most once, after all additions
	// above and before urgency classification and revenue-impact.
	mspHits := hits[CatMSPContext]
	if len(mspHits) > 0 {
		matchedTerms[CatMSPContext] = mspHits
		total *= e.Cfg.MSPMultiplier
		multipliers["msp_context_multiplier"] = e.Cfg.MSPMultiplier
	}

	// 8. Urgency classification.
	timeDeadlineHit := len(e.Patterns.MatchCategory(catTimeDeadline, text)) > 0
	scaleHit := len(e.Patterns.MatchCategory(catScale, text)) > 0
	var urgency model.Urgency
	switch {
	case len(urgencyHighHits) > 0 || (timeDeadlineHit && scaleHit):
		urgency = model.UrgencyHigh
	case len(urgencyMediumHits) > 0 || total >= e.Cfg.MediumUrgencyTotalThreshold:
		urgency = model.UrgencyMedium
	default:
		urgency = model.UrgencyLow
	}

	// 9. Revenue-impact model.
	impact := model.RevenueImpact{
		Immediate:   axisScore(len(pricingHits)+len(urgencyHighHits), 3),
		Margin:      axisScore(len(hits[CatSupply])+vendorCount, 3, multiplierCount(multipliers, "cloud_security_boost", "cloud_security_vendor_bonus")),
		Competitive: axisScore(0, 0, multiplierCount(multipliers, "partnership_boost", "ma_boost")),
		Strategic:   axisScore(len(hits[CatStrategy])+len(hits[CatTechnology]), 3),
		Urgency:     urgencyAxis(urgency),
	}
	total += impact.Weighted(model.RevenueWeights{
		Immediate:   e.Cfg.RevenueImmediateWeight,
		Margin:      e.Cfg.RevenueMarginWeight,
		Competitive: e.Cfg.RevenueCompetitiveWeight,
		Strategic:   e.Cfg.RevenueStrategicWeight,
		Urgency:     e.Cfg.RevenueUrgencyWeight,
	})
	if total < 0 {
		total = 0
	}

	vendorList := make([]string, 0, len(vendorMatch.Vendors))
	for v := range vendorMatch.Vendors {
		vendorList = append(vendorList, v)
	}
	sort.Strings(vendorList)

	return model.Score{
		Total:               total,
		Urgency:             urgency,
		MatchedTerms:        matchedTerms,
		VendorsDetected:     vendorMatch.Vendors,
		VendorsDetectedList: vendorList,
		RevenueImpact:       impact,
		MultipliersApplied:  multipliers,
	}
}

// axisScore scores a revenue-impact axis on [0,10] from a hit count
// (clamped to a saturation point) plus a boost-presence count.
func axisScore(hitCount int, saturateAt int, boostPresence ...int) float64 {
	var score float64
	if saturateAt > 0 {
		frac := float64(hitCount) / float64(saturateAt)
		if frac > 1 {
			frac = 1
		}
		score = frac * 7
	}
	for _, b := range boostPresence {
		if b > 0 {
			score += 3
		}
	}
	if score > 10 {
		score = 10
	}
	return score
}

func multiplierCount(m map[string]float64, keys ...string) int {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return 1
		}
	}
	return 0
}

func urgencyAxis(u model.Urgency) float64 {
	switch u {
	case model.UrgencyHigh:
		return 10
	case model.UrgencyMedium:
		return 5
	default:
		return 1
	}
}
