// Package report assembles the final typed Report from the pipeline's
// validated outputs and serialises it to the JSON artifact.
package report

import (
	"sort"
	"time"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

// priorityOrder fixes the severity order alpha > beta > gamma. Report's
// InsightsByPriority is a map[Priority][]Insight; encoding/json sorts
// string-keyed maps lexicographically when marshalling, and "alpha" <
// "beta" < "gamma" happens to already match this severity order, so the
// serialised artifact comes out severity-ordered without extra plumbing.
var priorityOrder = []model.Priority{model.PriorityAlpha, model.PriorityBeta, model.PriorityGamma}

// Assemble builds the final Report from the pipeline's validated outputs.
// The report's sources list is sorted by SOURCE_ID whatever the order of
// bindings.
func Assemble(generatedAt time.Time, insights []model.Insight, bindings []model.SourceBinding, vendorRollup []model.VendorRollupEntry, stats model.RunStats) model.Report {
	byPriority := make(map[model.Priority][]model.Insight)
	for _, p := range priorityOrder {
		byPriority[p] = nil
	}
	for _, ins := range insights {
		byPriority[ins.Priority] = append(byPriority[ins.Priority], ins)
	}

	sources := make([]model.ReportSource, 0, len(bindings))
	for _, b := range bindings {
		sources = append(sources, model.ReportSource{
			SourceID:   b.SourceID,
			URL:        b.Item.URL,
			Title:      b.Item.Title,
			SourceKind: b.Item.SourceKind,
			PostedAt:   b.Item.PostedAt,
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].SourceID < sources[j].SourceID })

	stats.ItemsSelected = len(bindings)

	return model.Report{
		GeneratedAt:        generatedAt,
		InsightsByPriority: byPriority,
		Sources:            sources,
		VendorRollup:       vendorRollup,
		RunStats:           stats,
	}
}
