// Package orchestrator wires the pipeline stages into a single run:
// bounded-parallelism fetch -> dedup -> score -> select -> bind ->
// summarise -> vendor rollup -> assemble -> write. Every stage's
// dependency is injected once at construction, then the stages run in
// sequence with progress logged as the run proceeds; fetchers run
// concurrently via a goroutine-per-source fan-out over a sync.WaitGroup.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/priceintel/pricingintel/internal/errs"
	"github.com/priceintel/pricingintel/internal/xlog"
	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/fetch"
	"github.com/priceintel/pricingintel/pkg/core/model"
	"github.com/priceintel/pricingintel/pkg/core/report"
	"github.com/priceintel/pricingintel/pkg/core/scorer"
	"github.com/priceintel/pricingintel/pkg/core/selector"
	"github.com/priceintel/pricingintel/pkg/core/summarize"
	"github.com/priceintel/pricingintel/pkg/core/vendoranalytics"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
)

// perSourceTimeout bounds a single fetcher's wall-clock time, independent
// of the per-request HTTP timeout each fetcher's client already enforces.
const perSourceTimeout = 2 * time.Minute

const vendorRollupTopN = 20

// DictAdapter narrows *vendordict.Dictionary to the small read-only
// surfaces summarize.TierLookup and vendoranalytics.Dictionary need,
// converting the vendordict.Tier named type to the plain int those
// interfaces declare. Exported so callers building a Summarizer to hand
// to New can share the same adapter.
type DictAdapter struct{ D *vendordict.Dictionary }

func (a DictAdapter) Tier(vendor string) int             { return int(a.D.Tier(vendor)) }
func (a DictAdapter) AcquirersOf(vendor string) []string { return a.D.AcquirersOf(vendor) }

// Orchestrator holds every stage's dependencies, built once at startup.
type Orchestrator struct {
	Fetchers    []fetch.Fetcher
	Scorer      *scorer.Engine
	Dict        *vendordict.Dictionary
	Summarizer  *summarize.Summarizer
	SelectorCfg config.SelectorConfig
	RunCfg      config.RunConfig
	OutputDir   string
	Now         func() time.Time
	log         *xlog.Logger
}

// New builds an Orchestrator from its stage dependencies.
func New(fetchers []fetch.Fetcher, sc *scorer.Engine, dict *vendordict.Dictionary, summarizer *summarize.Summarizer, selectorCfg config.SelectorConfig, runCfg config.RunConfig, outputDir string, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		Fetchers:    fetchers,
		Scorer:      sc,
		Dict:        dict,
		Summarizer:  summarizer,
		SelectorCfg: selectorCfg,
		RunCfg:      runCfg,
		OutputDir:   outputDir,
		Now:         now,
		log:         xlog.New("orchestrator"),
	}
}

type fetchOutcome struct {
	source string
	items  []model.RawItem
	stats  fetch.Stats
	err    error
}

// Run executes one full pipeline invocation and writes the report
// artifact. A non-nil error means no artifact was written.
func (o *Orchestrator) Run(ctx context.Context) (model.Report, error) {
	start := o.Now()

	// runID correlates this invocation's log lines and is recorded in the
	// report's RunStats.RunID. It is not passed to the fetchers or the
	// cache, whose entries are keyed by request fingerprint alone.
	runID := uuid.New().String()
	log := xlog.New("orchestrator[" + runID[:8] + "]")
	log.Infof("starting run")

	timeout := time.Duration(o.RunCfg.GlobalTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 600 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rawItems, fetchedPerSource, partialFailures, err := o.runFetchers(runCtx)
	if err != nil {
		return model.Report{}, err
	}
	if len(rawItems) == 0 {
		return model.Report{}, &errs.TotalFetchFailure{}
	}

	deduped := selector.Dedup(rawItems)

	scored := make([]model.ScoredItem, 0, len(deduped))
	for _, item := range deduped {
		scored = append(scored, model.ScoredItem{RawItem: item, Score: o.Scorer.Score(item)})
	}

	selected := selector.Select(scored, o.SelectorCfg)

	bindings := summarize.Bind(selected)

	summary := o.Summarizer.Summarize(runCtx, bindings)

	dict := DictAdapter{D: o.Dict}
	rollup := vendoranalytics.Rank(selected, dict, vendorRollupTopN)

	stats := model.RunStats{
		RunID:                 runID,
		ItemsFetchedPerSource: fetchedPerSource,
		PartialFailures:       partialFailures,
		LLMFailed:             summary.Failed,
		LLMDropped:            summary.Dropped,
		LLMTokensUsed:         summary.TokensUsed,
		DurationMS:            o.Now().Sub(start).Milliseconds(),
	}

	rpt := report.Assemble(o.Now(), summary.Insights, bindings, rollup, stats)

	path, err := report.Write(o.OutputDir, rpt, o.Now())
	if err != nil {
		return model.Report{}, fmt.Errorf("writing report: %w", err)
	}
	log.Infof("wrote report to %s (%d sources, %d insights)", path, len(bindings), len(summary.Insights))

	return rpt, nil
}

// runFetchers runs every fetcher concurrently, each bounded by
// perSourceTimeout, and aggregates partial failures instead of failing the
// whole run on a single source's error.
func (o *Orchestrator) runFetchers(ctx context.Context) ([]model.RawItem, map[string]int, []string, error) {
	outcomes := make([]fetchOutcome, len(o.Fetchers))

	var wg sync.WaitGroup
	for i, f := range o.Fetchers {
		wg.Add(1)
		go func(i int, f fetch.Fetcher) {
			defer wg.Done()
			sourceCtx, cancel := context.WithTimeout(ctx, perSourceTimeout)
			defer cancel()
			items, stats, err := f.Fetch(sourceCtx)
			outcomes[i] = fetchOutcome{source: f.Name(), items: items, stats: stats, err: err}
		}(i, f)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, nil, nil, &errs.Cancelled{Err: ctx.Err()}
	}

	var allItems []model.RawItem
	fetchedPerSource := make(map[string]int)
	var partialFailures []string
	for _, oc := range outcomes {
		if oc.err != nil {
			var transient *errs.SourceTransientError
			var permanent *errs.SourcePermanentError
			switch {
			case errors.As(oc.err, &transient), errors.As(oc.err, &permanent):
				o.log.Warnf("source %s failed: %v", oc.source, oc.err)
			default:
				o.log.Warnf("source %s failed: %v", oc.source, oc.err)
			}
			partialFailures = append(partialFailures, fmt.Sprintf("%s: %v", oc.source, oc.err))
		}
		fetchedPerSource[oc.source] = oc.stats.ItemsFetched
		allItems = append(allItems, oc.items...)
	}
	sort.Strings(partialFailures)

	return allItems, fetchedPerSource, partialFailures, nil
}
