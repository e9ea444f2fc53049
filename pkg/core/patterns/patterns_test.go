package patterns

import "testing"

func TestMatchAllWordBoundary(t *testing.T) {
	table := Compile(map[string][]string{
		"pricing": {"price increase", "license fee"},
		"urgency_high": {"immediately", "ASAP"},
	})
	hits := table.MatchAll("We announced a Price Increase effective immediately.")
	if len(hits["pricing"]) != 1 || hits["pricing"][0] != "price increase" {
		t.Fatalf("expected pricing hit, got %+v", hits)
	}
	if len(hits["urgency_high"]) != 1 {
		t.Fatalf("expected urgency_high hit, got %+v", hits)
	}
}

func TestMatchAllNoSubstringLeak(t *testing.T) {
	table := Compile(map[string][]string{
		"supply": {"chip"},
	})
	hits := table.MatchAll("The chipset shipped on time.")
	if len(hits["supply"]) != 0 {
		t.Fatalf("expected no match for 'chip' inside 'chipset', got %+v", hits)
	}
}

func TestCompileNeverFailsOnBadRegexChar(t *testing.T) {
	// A phrase that would be a broken regex if not escaped: stray '('.
	table := Compile(map[string][]string{
		"ma_intel": {"consolidation ("},
	})
	if len(table.Warnings) != 0 {
		t.Fatalf("expected QuoteMeta to avoid any compile warning, got %+v", table.Warnings)
	}
	hits := table.MatchAll("Analysts expect consolidation ( soon).")
	if len(hits["ma_intel"]) != 1 {
		t.Fatalf("expected literal match of escaped phrase, got %+v", hits)
	}
}

func TestCategoriesSortedDeterministic(t *testing.T) {
	table := Compile(map[string][]string{"zeta": {"x"}, "alpha": {"y"}})
	cats := table.Categories()
	if cats[0] != "alpha" || cats[1] != "zeta" {
		t.Fatalf("expected sorted categories, got %v", cats)
	}
}
