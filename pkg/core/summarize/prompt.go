package summarize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
)

// Bind assigns each selected item a stable 1-based SOURCE_ID, in the
// order given (callers should pass the selector's output, already
// deterministically ordered).
func Bind(items []model.ScoredItem) []model.SourceBinding {
	bindings := make([]model.SourceBinding, 0, len(items))
	for i, it := range items {
		bindings = append(bindings, model.SourceBinding{SourceID: i + 1, Item: it})
	}
	return bindings
}

const systemPromptTemplate = `You are a pricing-intelligence analyst. You will be given a numbered list of sources (SOURCE_ID 1..%d). Produce a strict JSON object with this shape:

{
  "insights": [
    {"role": "pricing|procurement|strategy", "text": "...[SOURCE_ID:3]...", "claimed_priority": "alpha|beta|gamma"}
  ],
  "executive_summary": "single paragraph"
}

Rules:
- Tag every insight with exactly one role: pricing, procurement, or strategy.
- Every insight MUST cite at least one source as "[SOURCE_ID:k]" where k is one of the listed ids. Do not invent ids.
- Do not include an insight unless it states a quantitative detail (a price, a percentage, a dollar amount, an explicit count) or a specific named vendor action.
- Do not fabricate prices, companies, or dates that are not present in the cited source's excerpt.
- claimed_priority should reflect how urgent the cited source(s) are: alpha for high urgency, beta for medium, gamma otherwise. You may escalate but the caller may override a claim that is too low.
- Respond with JSON only, no markdown fencing, no commentary.`

// BuildSystemPrompt enumerates the prompt protocol rules: the three
// roles, the SOURCE_ID citation mandate, and the no-fabrication /
// quantitative-detail requirements.
func BuildSystemPrompt(bindingCount int) string {
	return fmt.Sprintf(systemPromptTemplate, bindingCount)
}

// BuildUserPrompt renders the binding list: for each SOURCE_ID, title,
// a body excerpt truncated to excerptMaxChars, url, detected vendors, and
// urgency.
func BuildUserPrompt(bindings []model.SourceBinding, reportCfg config.ReportConfig) string {
	var b strings.Builder
	b.WriteString("Sources:\n\n")
	for _, sb := range bindings {
		it := sb.Item
		vendors := append([]string(nil), it.Score.VendorsDetectedList...)
		sort.Strings(vendors)
		vendorStr := "none"
		if len(vendors) > 0 {
			vendorStr = strings.Join(vendors, ", ")
		}
		fmt.Fprintf(&b, "SOURCE_ID:%d\nTitle: %s\nExcerpt: %s\nURL: %s\nVendors: %s\nUrgency: %s\n\n",
			sb.SourceID, it.Title, excerpt(it.Body, reportCfg.ExcerptMaxChars), it.URL, vendorStr, it.Score.Urgency)
	}
	return b.String()
}

func excerpt(body string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 500
	}
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= maxChars {
		return string(runes)
	}
	return string(runes[:maxChars]) + "..."
}
