// Package vendordict is the static vendor dictionary: canonical vendor
// names, their aliases, tier classification, and acquisition edges. It is
// built once at startup from a YAML file and is read-only thereafter.
package vendordict

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/priceintel/pricingintel/internal/errs"
)

// Tier is the coarse importance class of a vendor, 1 (most important) to 4.
type Tier int

// ConfidenceBoost maps tier to the confidence-tier boost it contributes.
func (t Tier) ConfidenceBoost() float64 {
	switch t {
	case 1:
		return 0.30
	case 2:
		return 0.20
	case 3:
		return 0.10
	default:
		return 0.00
	}
}

// Acquisition is a directed edge target -> acquirer in the acquisitions DAG.
type Acquisition struct {
	Acquirer string `yaml:"acquirer"`
	Target   string `yaml:"target"`
	Year     int    `yaml:"year,omitempty"`
}

// vendorEntry is the on-disk shape of one dictionary entry.
type vendorEntry struct {
	Aliases []string `yaml:"aliases"`
	Tier    Tier     `yaml:"tier"`
}

// fileFormat is the on-disk shape of the whole dictionary file.
type fileFormat struct {
	Vendors              map[string]vendorEntry `yaml:"vendors"`
	Acquisitions         []Acquisition          `yaml:"acquisitions"`
	Tier1Consolidators   []string               `yaml:"tier1_consolidators"`
	CloudSecurityVendors []string               `yaml:"cloud_security_vendors"`
}

// aliasMatcher is a compiled word-boundary matcher for one alias.
type aliasMatcher struct {
	alias   string
	pattern *regexp.Regexp
}

// Dictionary is the compiled, read-only vendor dictionary.
type Dictionary struct {
	canonicalOrder []string
	tiers          map[string]Tier
	tier1Consolidators map[string]bool
	cloudSecurityVendors map[string]bool
	aliasesByVendor    map[string][]string
	matchers           []aliasMatcher // sorted longest-alias-first, globally unique
	matcherVendor      map[string]string // alias (lowercase) -> canonical vendor
	acquirerOf         map[string][]string // target -> acquirers (edges pointing target->acquirer)
}

// Load reads and compiles a vendor dictionary from a YAML file.
// Fails fast on duplicate aliases or a cycle in the acquisitions DAG.
func Load(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.ConfigError{Reason: "unreadable vendor dictionary", Err: err}
	}
	var ff fileFormat
	if err := yaml.UnmarshalStrict(raw, &ff); err != nil {
		return nil, &errs.ConfigError{Reason: "malformed vendor dictionary", Err: err}
	}
	return compile(ff.Vendors, ff.Acquisitions, ff.Tier1Consolidators, ff.CloudSecurityVendors)
}

// compile builds a Dictionary from already-parsed entries.
func compile(vendors map[string]vendorEntry, acquisitions []Acquisition, tier1Consolidators []string, cloudSecurityVendors []string) (*Dictionary, error) {
	d := &Dictionary{
		tiers:              make(map[string]Tier),
		tier1Consolidators: make(map[string]bool),
		cloudSecurityVendors: make(map[string]bool),
		aliasesByVendor:    make(map[string][]string),
		matcherVendor:      make(map[string]string),
		acquirerOf:         make(map[string][]string),
	}
	for _, c := range tier1Consolidators {
		d.tier1Consolidators[strings.ToLower(c)] = true
	}
	for _, c := range cloudSecurityVendors {
		d.cloudSecurityVendors[strings.ToLower(c)] = true
	}

	seenAlias := make(map[string]string) // lowercase alias -> owning vendor
	for canonical, entry := range vendors {
		d.canonicalOrder = append(d.canonicalOrder, canonical)
		d.tiers[canonical] = entry.Tier
		d.aliasesByVendor[canonical] = entry.Aliases
		for _, alias := range entry.Aliases {
			key := strings.ToLower(alias)
			if owner, dup := seenAlias[key]; dup {
				return nil, &errs.ConfigError{Reason: fmt.Sprintf("duplicate alias %q claimed by %q and %q", alias, owner, canonical)}
			}
			seenAlias[key] = canonical
			d.matcherVendor[key] = canonical
		}
	}
	sort.Strings(d.canonicalOrder)

	// Compile matchers, longest alias first so overlapping aliases resolve
	// longest-alias-wins within a single match span.
	var aliases []string
	for alias := range seenAlias {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	for _, alias := range aliases {
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`)
		if err != nil {
			return nil, &errs.ConfigError{Reason: fmt.Sprintf("failed to compile alias pattern %q", alias), Err: err}
		}
		d.matchers = append(d.matchers, aliasMatcher{alias: alias, pattern: pattern})
	}

	// Build the DAG edges (target -> acquirer) and fail on cycles.
	for _, a := range acquisitions {
		d.acquirerOf[strings.ToLower(a.Target)] = append(d.acquirerOf[strings.ToLower(a.Target)], a.Acquirer)
	}
	if cyc := d.findCycle(); cyc != "" {
		return nil, &errs.ConfigError{Reason: "acquisitions graph contains a cycle: " + cyc}
	}

	return d, nil
}

// findCycle does a DFS over the target->acquirer edges and returns a
// description of the first cycle found, or "" if the graph is a DAG.
func (d *Dictionary) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var path []string

	var visit func(node string) string
	visit = func(node string) string {
		color[node] = gray
		path = append(path, node)
		for _, next := range d.acquirerOf[node] {
			nextKey := strings.ToLower(next)
			switch color[nextKey] {
			case gray:
				return strings.Join(append(path, nextKey), " -> ")
			case white:
				if c := visit(nextKey); c != "" {
					return c
				}
			}
		}
		path = path[:len(path)-1]
		color[node] = black
		return ""
	}

	nodes := make(map[string]bool)
	for target, acquirers := range d.acquirerOf {
		nodes[target] = true
		for _, a := range acquirers {
			nodes[strings.ToLower(a)] = true
		}
	}
	var sorted []string
	for n := range nodes {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	for _, n := range sorted {
		if color[n] == white {
			if c := visit(n); c != "" {
				return c
			}
		}
	}
	return ""
}

// MatchResult is the outcome of matching text against the dictionary.
type MatchResult struct {
	Vendors map[string]bool
	Hits    map[string][]string // canonical vendor -> matched aliases
}

// Match finds every canonical vendor mentioned in text, case-insensitive
// and word-boundary only: "corel" never matches oracle's alias "ora"
// because \b anchors prevent matching inside a longer word.
func (d *Dictionary) Match(text string) MatchResult {
	result := MatchResult{Vendors: make(map[string]bool), Hits: make(map[string][]string)}
	// Track consumed byte ranges so that when aliases overlap within a
	// single match span, the longest (matchers are pre-sorted longest
	// first) wins and shorter aliases inside that span are skipped.
	var consumed []([2]int)
	isConsumed := func(start, end int) bool {
		for _, r := range consumed {
			if start < r[1] && end > r[0] {
				return true
			}
		}
		return false
	}

	for _, m := range d.matchers {
		locs := m.pattern.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			if isConsumed(loc[0], loc[1]) {
				continue
			}
			consumed = append(consumed, [2]int{loc[0], loc[1]})
			vendor := d.matcherVendor[m.alias]
			result.Vendors[vendor] = true
			result.Hits[vendor] = append(result.Hits[vendor], m.alias)
		}
	}
	return result
}

// AcquisitionChain walks the DAG from v following target -> acquirer
// edges and returns the chain of acquirers (not including v itself).
func (d *Dictionary) AcquisitionChain(v string) []string {
	key := strings.ToLower(v)
	var chain []string
	visited := make(map[string]bool)
	for {
		acquirers, ok := d.acquirerOf[key]
		if !ok || len(acquirers) == 0 {
			break
		}
		next := acquirers[0]
		nextKey := strings.ToLower(next)
		if visited[nextKey] {
			break // defensive; Load already rejects cycles
		}
		visited[nextKey] = true
		canon := d.canonicalFor(next)
		chain = append(chain, canon)
		key = nextKey
	}
	return chain
}

// canonicalFor returns name unchanged: acquirer names in the acquisitions
// list are taken to be canonical already, and no alias lookup is done.
func (d *Dictionary) canonicalFor(name string) string {
	if _, ok := d.tiers[name]; ok {
		return name
	}
	return name
}

// ConfidenceBoost returns the tier-based confidence boost for vendor v.
func (d *Dictionary) ConfidenceBoost(v string) float64 {
	return d.tiers[v].ConfidenceBoost()
}

// Tier returns the tier of vendor v, or 0 if unknown.
func (d *Dictionary) Tier(v string) Tier {
	return d.tiers[v]
}

// IsTier1Consolidator reports whether vendor v is flagged as a tier-1
// consolidator for the M&A intelligence boost.
func (d *Dictionary) IsTier1Consolidator(v string) bool {
	return d.tier1Consolidators[strings.ToLower(v)]
}

// IsCloudSecurityVendor reports whether v is tagged as a cloud-security
// platform vendor, used by the scorer's cloud-security boost.
func (d *Dictionary) IsCloudSecurityVendor(v string) bool {
	return d.cloudSecurityVendors[strings.ToLower(v)]
}

// AcquirersOf returns every acquirer with an edge target=v (used by vendor
// analytics to co-credit acquirers for mentions of their targets).
func (d *Dictionary) AcquirersOf(v string) []string {
	return append([]string(nil), d.acquirerOf[strings.ToLower(v)]...)
}

// Vendors returns every canonical vendor name, sorted.
func (d *Dictionary) Vendors() []string {
	return append([]string(nil), d.canonicalOrder...)
}
