package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/priceintel/pricingintel/internal/errs"
	"github.com/priceintel/pricingintel/internal/xlog"
	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/fetch"
	"github.com/priceintel/pricingintel/pkg/core/httpcache"
	"github.com/priceintel/pricingintel/pkg/core/patterns"
	"github.com/priceintel/pricingintel/pkg/core/scorer"
	"github.com/priceintel/pricingintel/pkg/core/summarize"
	"github.com/priceintel/pricingintel/pkg/core/vendordict"
	"github.com/priceintel/pricingintel/pkg/orchestrator"
)

const (
	defaultForumBaseURL  = "https://www.reddit.com"
	defaultSearchBaseURL = "https://search.example.com/customsearch"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the pipeline YAML configuration")
	vendorPath := flag.String("vendors", "", "path to the vendor dictionary YAML (overrides config)")
	keywordsPath := flag.String("keywords", "", "path to the scoring keywords YAML (overrides config)")
	outputDir := flag.String("output", "output", "directory the report artifact is written to")
	forumBaseURL := flag.String("forum-base-url", defaultForumBaseURL, "forum API root")
	searchBaseURL := flag.String("search-base-url", defaultSearchBaseURL, "web search API root")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, assuming environment variables are already set")
	}

	if err := run(*configPath, *vendorPath, *keywordsPath, *outputDir, *forumBaseURL, *searchBaseURL); err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(errs.ExitCode(err))
	}
}

func run(configPath, vendorPathOverride, keywordsPathOverride, outputDir, forumBaseURL, searchBaseURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	vendorPath := cfg.VendorDictionaryPath
	if vendorPathOverride != "" {
		vendorPath = vendorPathOverride
	}
	dict, err := vendordict.Load(vendorPath)
	if err != nil {
		return err
	}

	keywordsPath := cfg.KeywordsPath
	if keywordsPathOverride != "" {
		keywordsPath = keywordsPathOverride
	}
	table, err := patterns.LoadKeywords(keywordsPath)
	if err != nil {
		return err
	}

	fmt.Println("pricingintel: starting run")

	forumFetcher := fetch.NewForumFetcher(cfg.Sources.Forum, dict, forumBaseURL, nil)
	searchFetcher := fetch.NewSearchFetcher(cfg.Sources.Search, searchBaseURL, 1.0, nil)

	if cache := newHTTPCache(context.Background(), cfg.Cache); cache != nil {
		forumFetcher.SetCache(cache)
		searchFetcher.SetCache(cache)
	}

	engine := scorer.NewEngine(table, dict, cfg.Scoring, nil)

	provider := summarize.NewGeminiProvider(cfg.LLM)
	summarizer := summarize.New(provider, orchestrator.DictAdapter{D: dict}, cfg.Report, cfg.LLM)

	orch := orchestrator.New(
		[]fetch.Fetcher{forumFetcher, searchFetcher},
		engine,
		dict,
		summarizer,
		cfg.Selector,
		cfg.Run,
		outputDir,
		nil,
	)

	rpt, err := orch.Run(context.Background())
	if err != nil {
		return err
	}

	insightCount := 0
	for _, insights := range rpt.InsightsByPriority {
		insightCount += len(insights)
	}
	fmt.Printf("pricingintel: run complete - %d sources bound, %d insights, %d vendors ranked\n",
		len(rpt.Sources), insightCount, len(rpt.VendorRollup))
	return nil
}

// newHTTPCache builds the optional content-addressed HTTP cache from the
// CACHE_DATABASE_URL environment variable. A missing DSN or a dial failure
// is logged and treated as "cache disabled" rather than a fatal error: the
// cache is advisory, never authoritative.
func newHTTPCache(ctx context.Context, cfg config.CacheConfig) *httpcache.Cache {
	log := xlog.New("cache")
	if !cfg.Enabled {
		return nil
	}
	dsn := os.Getenv("CACHE_DATABASE_URL")
	if dsn == "" {
		log.Warnf("cache.enabled is true but CACHE_DATABASE_URL is unset, running without a cache")
		return nil
	}
	pool, err := httpcache.InitPool(ctx, dsn)
	if err != nil {
		log.Warnf("failed to initialize cache pool: %v", err)
		return nil
	}
	cache := httpcache.New(pool, cfg.TTLHours)
	if err := cache.EnsureSchema(ctx); err != nil {
		log.Warnf("failed to ensure cache schema: %v", err)
		return nil
	}
	return cache
}
