// Package patterns compiles per-category keyword phrase lists into
// case-insensitive, word-boundary matchers, evaluated once per item in
// O(|text|) amortised. A Table is built once at startup and is read-only
// thereafter, safe for concurrent use across fetcher goroutines.
package patterns

import (
	"regexp"
	"sort"
	"strings"

	"github.com/priceintel/pricingintel/internal/errs"
)

// phraseMatcher is either a compiled regexp or, when compilation fails for
// a given phrase, a literal substring fallback. Compilation failure for one
// phrase must never fail the whole pipeline.
type phraseMatcher struct {
	phrase    string
	re        *regexp.Regexp
	substring bool
}

func (m phraseMatcher) matches(lowerText string) bool {
	if m.substring {
		return strings.Contains(lowerText, strings.ToLower(m.phrase))
	}
	return m.re.MatchString(lowerText)
}

// Category is one compiled category's matcher list.
type Category struct {
	name     string
	matchers []phraseMatcher
}

// Table is the full compiled pattern table: category name -> Category.
// Built once at startup, safe for concurrent reads thereafter.
type Table struct {
	categories map[string]*Category
	order      []string
	Warnings   []*errs.PatternCompileWarning
}

// wordBoundaryPattern builds a case-insensitive, word-boundary regexp for a
// phrase. Phrases containing punctuation compare literally after
// normalisation (we anchor on literal text via QuoteMeta, then apply word
// boundaries only at the phrase's outer edges).
func wordBoundaryPattern(phrase string) (*regexp.Regexp, error) {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	// Join multi-word phrases on \s+ so any whitespace run in the text
	// matches a single authored space in the phrase.
	escaped := strings.Join(words, `\s+`)
	// \b only holds next to a word character, so it is added only at an
	// outer edge where the phrase has one; a punctuation edge matches
	// literally.
	trimmed := strings.TrimSpace(phrase)
	if regexp.MustCompile(`^\w`).MatchString(trimmed) {
		escaped = `\b` + escaped
	}
	if regexp.MustCompile(`\w$`).MatchString(trimmed) {
		escaped += `\b`
	}
	return regexp.Compile(`(?i)` + escaped)
}

// Compile builds a Table from category -> phrase list. Phrases that fail
// regexp compilation fall back to substring matching for that phrase only;
// a PatternCompileWarning is recorded but compilation never fails.
func Compile(categoryPhrases map[string][]string) *Table {
	t := &Table{categories: make(map[string]*Category)}
	for name := range categoryPhrases {
		t.order = append(t.order, name)
	}
	sort.Strings(t.order)

	for _, name := range t.order {
		phrases := categoryPhrases[name]
		cat := &Category{name: name}
		for _, phrase := range phrases {
			if strings.TrimSpace(phrase) == "" {
				continue
			}
			re, err := wordBoundaryPattern(phrase)
			if err != nil {
				t.Warnings = append(t.Warnings, &errs.PatternCompileWarning{Category: name, Phrase: phrase, Err: err})
				cat.matchers = append(cat.matchers, phraseMatcher{phrase: phrase, substring: true})
				continue
			}
			cat.matchers = append(cat.matchers, phraseMatcher{phrase: phrase, re: re})
		}
		t.categories[name] = cat
	}
	return t
}

// MatchCategory returns the set of phrases from category that appear in
// text, preserving the category's configured phrase order.
func (t *Table) MatchCategory(category, text string) []string {
	cat, ok := t.categories[category]
	if !ok {
		return nil
	}
	lower := strings.ToLower(text)
	var hits []string
	for _, m := range cat.matchers {
		if m.matches(lower) {
			hits = append(hits, m.phrase)
		}
	}
	return hits
}

// MatchAll evaluates every configured category against text and returns
// category -> matched phrases, omitting categories with no hits.
func (t *Table) MatchAll(text string) map[string][]string {
	lower := strings.ToLower(text)
	result := make(map[string][]string)
	for _, name := range t.order {
		cat := t.categories[name]
		var hits []string
		for _, m := range cat.matchers {
			if m.matches(lower) {
				hits = append(hits, m.phrase)
			}
		}
		if len(hits) > 0 {
			result[name] = hits
		}
	}
	return result
}

// Categories returns the configured category names, sorted.
func (t *Table) Categories() []string {
	return append([]string(nil), t.order...)
}
