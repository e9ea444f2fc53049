// Package config defines the single typed configuration structure for the
// pipeline and its YAML loader. Every option is an enumerated struct field
// rather than a dynamic dict-shaped value, and unknown fields are rejected
// as a ConfigError instead of silently ignored.
package config

import (
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/priceintel/pricingintel/internal/errs"
)

// ForumConfig configures the forum fetcher.
type ForumConfig struct {
	SubChannels          []string `yaml:"sub_channels"`
	RatePerSec           float64  `yaml:"rate_per_sec"`
	MinUpvotes           int      `yaml:"min_upvotes"`
	MinComments          int      `yaml:"min_comments"`
	WindowHours          int      `yaml:"window_hours"`
	FallbackWindowHours  int      `yaml:"fallback_window_hours"`
	FallbackThreshold    int      `yaml:"fallback_threshold"`
}

// SearchConfig configures the web-search fetcher.
type SearchConfig struct {
	Queries          []string `yaml:"queries"`
	ResultsPerQuery  int      `yaml:"results_per_query"`
	DateRestriction  string   `yaml:"date_restriction"`
}

// SourcesConfig groups the per-source fetcher configs.
type SourcesConfig struct {
	Forum  ForumConfig  `yaml:"forum"`
	Search SearchConfig `yaml:"search"`
}

// ScoringConfig centralises every scoring constant: caps, weights, and
// multipliers, all overridable.
type ScoringConfig struct {
	PricingWeight           float64 `yaml:"pricing_weight"`
	PricingCap              float64 `yaml:"pricing_cap"`
	UrgencyHighWeight       float64 `yaml:"urgency_high_weight"`
	UrgencyHighCap          float64 `yaml:"urgency_high_cap"`
	UrgencyMediumWeight     float64 `yaml:"urgency_medium_weight"`
	UrgencyMediumCap        float64 `yaml:"urgency_medium_cap"`
	MinorCategoryWeight     float64 `yaml:"minor_category_weight"` // supply/strategy/technology
	MinorCategoryCap        float64 `yaml:"minor_category_cap"`

	VendorWeight        float64 `yaml:"vendor_weight"`
	VendorCap           float64 `yaml:"vendor_cap"`
	Tier1VendorBonus    float64 `yaml:"tier1_vendor_bonus"`

	RecencyWithin24h float64 `yaml:"recency_within_24h"`
	RecencyWithin7d  float64 `yaml:"recency_within_7d"`

	CloudSecurityBoost       float64 `yaml:"cloud_security_boost"`
	CloudSecurityVendorBonus float64 `yaml:"cloud_security_vendor_bonus"`

	MABoost              float64 `yaml:"ma_boost"`
	MATier1ConsolidatorBonus float64 `yaml:"ma_tier1_consolidator_bonus"`
	MACap                float64 `yaml:"ma_cap"`

	PartnerChangeBoost       float64 `yaml:"partner_change_boost"`
	PartnerTierChangeBoost   float64 `yaml:"partner_tier_change_boost"`
	BusinessRelChangeBoost   float64 `yaml:"business_relationship_change_boost"`
	PartnershipCap           float64 `yaml:"partnership_cap"`

	MSPMultiplier float64 `yaml:"msp_multiplier"`

	MediumUrgencyTotalThreshold float64 `yaml:"medium_urgency_total_threshold"`

	RevenueImmediateWeight   float64 `yaml:"revenue_immediate_weight"`
	RevenueMarginWeight      float64 `yaml:"revenue_margin_weight"`
	RevenueCompetitiveWeight float64 `yaml:"revenue_competitive_weight"`
	RevenueStrategicWeight   float64 `yaml:"revenue_strategic_weight"`
	RevenueUrgencyWeight     float64 `yaml:"revenue_urgency_weight"`
}

// BucketPct is the selector's percentage-of-K allocation per bucket.
type BucketPct struct {
	Critical   float64 `yaml:"critical"`
	Engagement float64 `yaml:"engagement"`
	Relevance  float64 `yaml:"relevance"`
}

// SelectorConfig configures the dedup+selection stage.
type SelectorConfig struct {
	K         int       `yaml:"k"`
	BucketPct BucketPct `yaml:"bucket_pct"`
}

// LLMConfig configures the summariser's LLM call.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	ExcerptMaxChars int `yaml:"excerpt_max_chars"`
}

// RunConfig configures whole-run behavior.
type RunConfig struct {
	GlobalTimeoutSec int `yaml:"global_timeout_sec"`
}

// CacheConfig configures the optional HTTP response cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLHours int `yaml:"ttl_hours"`
}

// Config is the single typed configuration structure for the pipeline.
type Config struct {
	Sources           SourcesConfig `yaml:"sources"`
	Scoring           ScoringConfig `yaml:"scoring"`
	Selector          SelectorConfig `yaml:"selector"`
	LLM               LLMConfig     `yaml:"llm"`
	Report            ReportConfig  `yaml:"report"`
	Run               RunConfig     `yaml:"run"`
	VendorDictionaryPath string     `yaml:"vendor_dictionary_path"`
	KeywordsPath         string     `yaml:"keywords_path"`
	Cache                CacheConfig `yaml:"cache"`
}

// Default returns the configuration with every documented default applied.
func Default() Config {
	return Config{
		Sources: SourcesConfig{
			Forum: ForumConfig{
				RatePerSec:          0.5,
				MinUpvotes:          3,
				MinComments:         3,
				WindowHours:         24,
				FallbackWindowHours: 168,
				FallbackThreshold:   20,
			},
			Search: SearchConfig{
				ResultsPerQuery: 10,
				DateRestriction: "d7",
			},
		},
		Scoring: ScoringConfig{
			PricingWeight:       1.0,
			PricingCap:          5.0,
			UrgencyHighWeight:   2.0,
			UrgencyHighCap:      6.0,
			UrgencyMediumWeight: 1.0,
			UrgencyMediumCap:    3.0,
			MinorCategoryWeight: 0.5,
			MinorCategoryCap:    2.0,

			VendorWeight:     1.5,
			VendorCap:        6.0,
			Tier1VendorBonus: 1.0,

			RecencyWithin24h: 1.5,
			RecencyWithin7d:  0.5,

			CloudSecurityBoost:       3.0,
			CloudSecurityVendorBonus: 1.0,

			MABoost:                  3.0,
			MATier1ConsolidatorBonus: 2.0,
			MACap:                    6.5,

			PartnerChangeBoost:     2.0,
			PartnerTierChangeBoost: 4.0,
			BusinessRelChangeBoost: 3.0,
			PartnershipCap:         8.0,

			MSPMultiplier: 1.5,

			MediumUrgencyTotalThreshold: 7.0,

			RevenueImmediateWeight:   0.30,
			RevenueMarginWeight:      0.25,
			RevenueCompetitiveWeight: 0.20,
			RevenueStrategicWeight:   0.15,
			RevenueUrgencyWeight:     0.10,
		},
		Selector: SelectorConfig{
			K: 200,
			BucketPct: BucketPct{
				Critical:   0.4,
				Engagement: 0.2,
				Relevance:  0.3,
			},
		},
		LLM: LLMConfig{
			MaxTokens:   2000,
			Temperature: 0.2,
			TimeoutSec:  90,
		},
		Report: ReportConfig{
			ExcerptMaxChars: 500,
		},
		Run: RunConfig{
			GlobalTimeoutSec: 600,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLHours: 6,
		},
	}
}

// Load reads a YAML config file on top of Default(), rejecting unknown
// fields so a typo in the file surfaces as a ConfigError instead of being
// silently ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errs.ConfigError{Reason: "unreadable config file", Err: err}
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return Config{}, &errs.ConfigError{Reason: "malformed config file", Err: err}
	}
	return cfg, nil
}
