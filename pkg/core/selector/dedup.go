// Package selector implements the dedup + priority-bucket selection
// stage: collapsing near-duplicate RawItems and ranking the survivors
// into a capacity-bounded, deterministically ordered list.
package selector

import (
	"github.com/priceintel/pricingintel/pkg/core/model"
)

// Dedup groups items by normalized URL, falling back to content hash when
// an item has no usable URL, keeping the highest-engagement survivor of
// each group (ties broken by most recent posted_at).
func Dedup(items []model.RawItem) []model.RawItem {
	type group struct {
		best  model.RawItem
		order int
	}
	groups := make(map[string]*group)
	var keyOrder []string

	for i, it := range items {
		key := dedupKey(it)
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{best: it, order: i}
			keyOrder = append(keyOrder, key)
			continue
		}
		if survives(it, g.best) {
			g.best = it
		}
	}

	out := make([]model.RawItem, 0, len(keyOrder))
	for _, key := range keyOrder {
		out = append(out, groups[key].best)
	}
	return out
}

func dedupKey(it model.RawItem) string {
	if it.URL != "" {
		return "url:" + it.URL
	}
	return "hash:" + it.ContentHash
}

// survives reports whether candidate should replace incumbent as the
// group's kept item: higher engagement score wins, ties broken by recency.
func survives(candidate, incumbent model.RawItem) bool {
	cs := candidate.Engagement.Score()
	is := incumbent.Engagement.Score()
	if cs != is {
		return cs > is
	}
	return candidate.PostedAt.After(incumbent.PostedAt)
}
