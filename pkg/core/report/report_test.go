package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/priceintel/pricingintel/pkg/core/model"
)

func TestAssembleGroupsInsightsByPriority(t *testing.T) {
	insights := []model.Insight{
		{Text: "a", Priority: model.PriorityGamma},
		{Text: "b", Priority: model.PriorityAlpha},
		{Text: "c", Priority: model.PriorityAlpha},
	}
	rpt := Assemble(time.Now(), insights, nil, nil, model.RunStats{})
	if len(rpt.InsightsByPriority[model.PriorityAlpha]) != 2 {
		t.Fatalf("expected 2 alpha insights, got %d", len(rpt.InsightsByPriority[model.PriorityAlpha]))
	}
	if len(rpt.InsightsByPriority[model.PriorityGamma]) != 1 {
		t.Fatalf("expected 1 gamma insight, got %d", len(rpt.InsightsByPriority[model.PriorityGamma]))
	}
	if len(rpt.InsightsByPriority[model.PriorityBeta]) != 0 {
		t.Fatalf("expected an explicit empty beta bucket, got %d", len(rpt.InsightsByPriority[model.PriorityBeta]))
	}
}

func TestAssembleOrdersSourcesBySourceID(t *testing.T) {
	bindings := []model.SourceBinding{
		{SourceID: 2, Item: model.ScoredItem{RawItem: model.RawItem{URL: "https://x.test/2"}}},
		{SourceID: 1, Item: model.ScoredItem{RawItem: model.RawItem{URL: "https://x.test/1"}}},
	}
	rpt := Assemble(time.Now(), nil, bindings, nil, model.RunStats{})
	if rpt.Sources[0].SourceID != 1 || rpt.Sources[1].SourceID != 2 {
		t.Fatalf("expected sources ordered by SourceID, got %+v", rpt.Sources)
	}
}

func TestReportJSONPriorityKeyOrderMatchesSeverity(t *testing.T) {
	rpt := Assemble(time.Now(), []model.Insight{{Priority: model.PriorityBeta}}, nil, nil, model.RunStats{})
	data, err := json.Marshal(rpt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	alphaIdx := strings.Index(s, `"alpha"`)
	betaIdx := strings.Index(s, `"beta"`)
	gammaIdx := strings.Index(s, `"gamma"`)
	if !(alphaIdx < betaIdx && betaIdx < gammaIdx) {
		t.Fatalf("expected alpha < beta < gamma key order in serialised JSON, got indices %d,%d,%d", alphaIdx, betaIdx, gammaIdx)
	}
}

func TestReportRoundTripsIdempotently(t *testing.T) {
	rpt := Assemble(time.Now().UTC().Truncate(time.Second), []model.Insight{{Text: "x", Priority: model.PriorityAlpha, CitedSourceIDs: []int{1}}}, nil, nil, model.RunStats{ItemsFetchedPerSource: map[string]int{"forum": 3}})

	first, err := json.Marshal(rpt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded model.Report
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected idempotent round-trip, got:\n%s\n!=\n%s", first, second)
	}
}
