// Package model holds the data types shared across the pipeline stages:
// RawItem from the fetchers, Score from the scorer, the LLM-bound Insight,
// and the final Report handed to the external renderer.
package model

import "time"

// SourceKind distinguishes the two fetcher families.
type SourceKind string

const (
	SourceForum  SourceKind = "forum"
	SourceSearch SourceKind = "search"
)

// Engagement captures forum signal; zero-valued for search items.
type Engagement struct {
	Upvotes  int `json:"upvotes"`
	Comments int `json:"comments"`
}

// Score returns the composite engagement signal used for tie-breaking
// and the dedup survivor rule (upvotes + comments*2).
func (e Engagement) Score() int {
	return e.Upvotes + e.Comments*2
}

// RawItem is one fetched post or article, before scoring.
type RawItem struct {
	SourceKind       SourceKind `json:"source_kind"`
	SourceSubchannel string     `json:"source_subchannel"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	URL              string     `json:"url"`
	PostedAt         time.Time  `json:"posted_at"`
	Engagement       Engagement `json:"engagement"`
	ContentHash      string     `json:"content_hash"`
}

// Urgency classifies how time-sensitive an item's pricing signal is.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// RevenueImpact is the five-axis scalar model, each axis in [0,10].
type RevenueImpact struct {
	Immediate   float64 `json:"immediate"`
	Margin      float64 `json:"margin"`
	Competitive float64 `json:"competitive"`
	Strategic   float64 `json:"strategic"`
	Urgency     float64 `json:"urgency"`
}

// RevenueWeights is the configurable per-axis weight set Weighted applies.
type RevenueWeights struct {
	Immediate   float64
	Margin      float64
	Competitive float64
	Strategic   float64
	Urgency     float64
}

// Weighted returns the weighted contribution to Score.Total, applying w's
// per-axis weights (default 0.30/0.25/0.20/0.15/0.10) to each axis.
func (r RevenueImpact) Weighted(w RevenueWeights) float64 {
	return w.Immediate*r.Immediate + w.Margin*r.Margin + w.Competitive*r.Competitive + w.Strategic*r.Strategic + w.Urgency*r.Urgency
}

// Score is the scorer's pure-function output for one item.
type Score struct {
	Total               float64             `json:"total"`
	Urgency             Urgency             `json:"urgency"`
	MatchedTerms        map[string][]string `json:"matched_terms"`
	VendorsDetected     map[string]bool     `json:"-"`
	VendorsDetectedList []string            `json:"vendors_detected"`
	RevenueImpact       RevenueImpact       `json:"revenue_impact"`
	MultipliersApplied  map[string]float64  `json:"multipliers_applied"`
}

// ScoredItem is a RawItem stamped with its Score.
type ScoredItem struct {
	RawItem
	Score Score `json:"score"`
}

// SourceBinding assigns a selected item a stable, invocation-scoped,
// 1-based SOURCE_ID for the LLM prompt and footnote numbering.
type SourceBinding struct {
	SourceID int        `json:"source_id"`
	Item     ScoredItem `json:"-"`
}

// Priority is the derived severity of an Insight.
type Priority string

const (
	PriorityAlpha Priority = "alpha" // high
	PriorityBeta  Priority = "beta"  // medium
	PriorityGamma Priority = "gamma" // watch
)

// Confidence is the post-hoc derived confidence tier of an Insight.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Role is the persona an Insight was produced under.
type Role string

const (
	RolePricing     Role = "pricing"
	RoleProcurement Role = "procurement"
	RoleStrategy    Role = "strategy"
)

// Insight is one validated, footnoted narrative claim from the LLM.
type Insight struct {
	Text           string     `json:"text"`
	Priority       Priority   `json:"priority"`
	Confidence     Confidence `json:"confidence"`
	Role           Role       `json:"role"`
	CitedSourceIDs []int      `json:"cited_source_ids"`
	Redundant      bool       `json:"redundant,omitempty"`
}

// ReportSource is one entry in the report's source list.
type ReportSource struct {
	SourceID   int        `json:"source_id"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	SourceKind SourceKind `json:"source_kind"`
	PostedAt   time.Time  `json:"posted_at"`
}

// VendorRollupEntry is one row of the vendor-rollup ranking.
type VendorRollupEntry struct {
	Vendor   string  `json:"vendor"`
	Mentions float64 `json:"mentions"`
	Tier     int     `json:"tier"`
}

// RunStats records per-invocation operational metadata.
type RunStats struct {
	RunID                 string         `json:"run_id"`
	ItemsFetchedPerSource map[string]int `json:"items_fetched_per_source"`
	ItemsSelected         int            `json:"items_selected"`
	LLMTokensUsed         int            `json:"llm_tokens_used"`
	DurationMS            int64          `json:"duration_ms"`
	PartialFailures       []string       `json:"partial_failures,omitempty"`
	LLMFailed             bool           `json:"llm_failed,omitempty"`
	LLMDropped            int            `json:"llm_dropped,omitempty"`
}

// Report is the typed object handed to the external HTML renderer and
// serialised as the JSON artifact.
type Report struct {
	GeneratedAt       time.Time                `json:"generated_at"`
	InsightsByPriority map[Priority][]Insight  `json:"insights_by_priority"`
	Sources           []ReportSource           `json:"sources"`
	VendorRollup      []VendorRollupEntry      `json:"vendor_rollup"`
	RunStats          RunStats                 `json:"run_stats"`
}
