package summarize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"github.com/priceintel/pricingintel/internal/errs"
)

// rawInsight is the wire shape the model is instructed to emit.
type rawInsight struct {
	Role            string `json:"role"`
	Text            string `json:"text"`
	ClaimedPriority string `json:"claimed_priority"`
}

type rawResponse struct {
	Insights         []rawInsight `json:"insights"`
	ExecutiveSummary string       `json:"executive_summary"`
}

// parseResponse tries three parsing strategies in order: standard JSON,
// json-repair, then Hjson (most lenient). It does not fall back to a raw
// regex scrape; if all three fail the caller (Summarize) surfaces an
// LLMError and the synthesis stage soft-fails.
func parseResponse(raw string) (rawResponse, error) {
	raw = stripCodeFence(raw)

	var resp rawResponse
	if err := json.Unmarshal([]byte(raw), &resp); err == nil {
		return resp, nil
	}

	if repaired, err := jsonrepair.RepairJSON(raw); err == nil {
		if err := json.Unmarshal([]byte(repaired), &resp); err == nil {
			return resp, nil
		}
	}

	var generic interface{}
	if err := hjson.Unmarshal([]byte(raw), &generic); err == nil {
		if asJSON, err := json.Marshal(generic); err == nil {
			if err := json.Unmarshal(asJSON, &resp); err == nil {
				return resp, nil
			}
		}
	}

	return rawResponse{}, &errs.LLMError{Stage: "parse", Err: errParseExhausted}
}

var errParseExhausted = parseExhaustedError{}

type parseExhaustedError struct{}

func (parseExhaustedError) Error() string {
	return "response did not parse as JSON, json-repair output, or Hjson"
}

var codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

var sourceIDPattern = regexp.MustCompile(`\[SOURCE_ID:(\d+)\]`)

// extractSourceIDs returns every SOURCE_ID:k marker cited in text, in the
// order encountered.
func extractSourceIDs(text string) []int {
	matches := sourceIDPattern.FindAllStringSubmatch(text, -1)
	ids := make([]int, 0, len(matches))
	for _, m := range matches {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}

// hasQuantifier reports whether text contains a numeric quantifier:
// currency, a percentage, or an explicit count. The numbers inside
// [SOURCE_ID:k] citation markers are not counted.
var quantifierPattern = regexp.MustCompile(`[$€£]\s?\d|\d+(\.\d+)?\s?%|\b\d+(,\d{3})*\b`)

func hasQuantifier(text string) bool {
	return quantifierPattern.MatchString(sourceIDPattern.ReplaceAllString(text, ""))
}
