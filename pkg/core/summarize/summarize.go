package summarize

import (
	"context"
	"strings"
	"time"

	"github.com/priceintel/pricingintel/internal/xlog"
	"github.com/priceintel/pricingintel/pkg/config"
	"github.com/priceintel/pricingintel/pkg/core/model"
)

// TierLookup is the subset of vendordict.Dictionary confidence derivation
// needs: whether a vendor is tier-1 or tier-2.
type TierLookup interface {
	Tier(vendor string) int
}

// Result is Summarize's output: the validated insights plus the
// operational counters the caller folds into RunStats.
type Result struct {
	Insights         []model.Insight
	ExecutiveSummary string
	Failed           bool
	Dropped          int // insights dropped for citing no SOURCE_ID, an out-of-range SOURCE_ID, or an unknown role
	TokensUsed       int
}

// Summarizer runs the LLM synthesis contract end to end: prompt
// construction, the call, the repair-retry ladder, SOURCE_ID range
// validation, duplicate collapsing, and confidence/priority/redundancy
// derivation.
type Summarizer struct {
	Provider  Provider
	Tiers     TierLookup
	ReportCfg config.ReportConfig
	LLMCfg    config.LLMConfig
	log       *xlog.Logger
}

func New(provider Provider, tiers TierLookup, reportCfg config.ReportConfig, llmCfg config.LLMConfig) *Summarizer {
	return &Summarizer{Provider: provider, Tiers: tiers, ReportCfg: reportCfg, LLMCfg: llmCfg, log: xlog.New("summarize")}
}

// Summarize binds the selected items to SOURCE_IDs, calls the LLM, and
// validates the result. On any failure after one repair retry, it returns
// a Result with Failed=true and no insights: the caller never synthesises
// fake insights to paper over an LLM failure.
func (s *Summarizer) Summarize(ctx context.Context, bindings []model.SourceBinding) Result {
	systemPrompt := BuildSystemPrompt(len(bindings))
	userPrompt := BuildUserPrompt(bindings, s.ReportCfg)

	resp, tokensUsed, err := s.callAndParse(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.log.Warnf("llm call failed, retrying with repair prompt: %v", err)
		var retryTokens int
		resp, retryTokens, err = s.callAndParse(ctx, systemPrompt, repairPrompt(userPrompt))
		tokensUsed += retryTokens
		if err != nil {
			s.log.Errorf("llm synthesis failed after repair retry: %v", err)
			return Result{Failed: true, TokensUsed: tokensUsed}
		}
	}

	insights, dropped := s.validateAndDerive(resp.Insights, bindings)
	return Result{Insights: insights, ExecutiveSummary: resp.ExecutiveSummary, Dropped: dropped, TokensUsed: tokensUsed}
}

// callAndParse bounds the LLM call to llm.timeout_sec (defaulting to 90s),
// independent of the whole-run global timeout.
func (s *Summarizer) callAndParse(ctx context.Context, systemPrompt, userPrompt string) (rawResponse, int, error) {
	timeoutSec := s.LLMCfg.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 90
	}
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	raw, tokensUsed, err := s.Provider.Generate(callCtx, systemPrompt, userPrompt)
	if err != nil {
		return rawResponse{}, tokensUsed, err
	}
	resp, err := parseResponse(raw)
	return resp, tokensUsed, err
}

func repairPrompt(original string) string {
	return "Your previous response was not valid JSON matching the required schema. " +
		"Re-read the sources below and respond again with ONLY the JSON object, no markdown fencing.\n\n" + original
}

// validateAndDerive applies response validation (SOURCE_ID range check,
// duplicate collapsing) and post-hoc confidence, priority, and redundancy
// derivation.
func (s *Summarizer) validateAndDerive(raw []rawInsight, bindings []model.SourceBinding) ([]model.Insight, int) {
	bySourceID := make(map[int]model.SourceBinding, len(bindings))
	for _, b := range bindings {
		bySourceID[b.SourceID] = b
	}

	seenText := make(map[string]bool)
	var out []model.Insight
	dropped := 0

	for _, ri := range raw {
		ids := extractSourceIDs(ri.Text)
		validIDs := make([]int, 0, len(ids))
		outOfRange := false
		for _, id := range ids {
			if _, ok := bySourceID[id]; ok {
				validIDs = append(validIDs, id)
			} else {
				outOfRange = true
			}
		}
		if len(ids) == 0 || outOfRange || len(validIDs) == 0 {
			dropped++
			continue
		}

		norm := normalizeInsightText(ri.Text)
		if seenText[norm] {
			continue
		}
		seenText[norm] = true

		role := model.Role(strings.ToLower(ri.Role))
		if role != model.RolePricing && role != model.RoleProcurement && role != model.RoleStrategy {
			dropped++
			continue
		}

		confidence := s.deriveConfidence(validIDs, ri.Text, bySourceID)
		derivedPriority := derivePriority(validIDs, bySourceID)
		priority := resolvePriority(derivedPriority, model.Priority(ri.ClaimedPriority))
		redundant := !hasVendorMention(validIDs, bySourceID) && !hasQuantifier(ri.Text)

		out = append(out, model.Insight{
			Text:           ri.Text,
			Priority:       priority,
			Confidence:     confidence,
			Role:           role,
			CitedSourceIDs: validIDs,
			Redundant:      redundant,
		})
	}

	return out, dropped
}

func normalizeInsightText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// deriveConfidence returns high when >=3 distinct cited sources agree and
// a numeric quantifier is present; medium when >=2 cited sources agree, or
// 1 source plus a tier-1/tier-2 vendor action with a quantifier; else low.
func (s *Summarizer) deriveConfidence(sourceIDs []int, text string, bySourceID map[int]model.SourceBinding) model.Confidence {
	distinct := distinctCount(sourceIDs)
	quantified := hasQuantifier(text)

	if distinct >= 3 && quantified {
		return model.ConfidenceHigh
	}
	if distinct >= 2 {
		return model.ConfidenceMedium
	}
	if distinct == 1 && quantified && s.citesTier1Or2Vendor(sourceIDs, bySourceID) {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

func (s *Summarizer) citesTier1Or2Vendor(sourceIDs []int, bySourceID map[int]model.SourceBinding) bool {
	if s.Tiers == nil {
		return false
	}
	for _, id := range sourceIDs {
		b, ok := bySourceID[id]
		if !ok {
			continue
		}
		for _, v := range b.Item.Score.VendorsDetectedList {
			tier := s.Tiers.Tier(v)
			if tier == 1 || tier == 2 {
				return true
			}
		}
	}
	return false
}

func hasVendorMention(sourceIDs []int, bySourceID map[int]model.SourceBinding) bool {
	for _, id := range sourceIDs {
		b, ok := bySourceID[id]
		if ok && len(b.Item.Score.VendorsDetectedList) > 0 {
			return true
		}
	}
	return false
}

// derivePriority returns alpha if any cited source has urgency high, beta
// if any medium, else gamma.
func derivePriority(sourceIDs []int, bySourceID map[int]model.SourceBinding) model.Priority {
	sawMedium := false
	for _, id := range sourceIDs {
		b, ok := bySourceID[id]
		if !ok {
			continue
		}
		switch b.Item.Score.Urgency {
		case model.UrgencyHigh:
			return model.PriorityAlpha
		case model.UrgencyMedium:
			sawMedium = true
		}
	}
	if sawMedium {
		return model.PriorityBeta
	}
	return model.PriorityGamma
}

// resolvePriority keeps the model's claimed priority only if it is at
// least as severe as the derived one; it can only escalate, never downgrade.
func resolvePriority(derived, claimed model.Priority) model.Priority {
	rank := map[model.Priority]int{model.PriorityGamma: 0, model.PriorityBeta: 1, model.PriorityAlpha: 2}
	if r, ok := rank[claimed]; ok && r >= rank[derived] {
		return claimed
	}
	return derived
}

func distinctCount(ids []int) int {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return len(seen)
}
