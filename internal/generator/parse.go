package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
)

// cleanJSON strips a surrounding markdown code fence.
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// extractObject returns the outermost {...} span, or "" when there is none.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// parseResult turns generator text into a result. Text that is not a JSON
// object becomes a degraded result; a JSON object without the tailored text
// is a malformed response. The optional sections are decoded one by one and
// a section with an unexpected shape is left empty.
func parseResult(text string) (models.GenerationResult, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return models.GenerationResult{}, fmt.Errorf("%w: empty text", apperr.ErrMalformedResponse)
	}

	var doc map[string]json.RawMessage
	obj := extractObject(cleanJSON(raw))
	if obj == "" || !json.Valid([]byte(obj)) || json.Unmarshal([]byte(obj), &doc) != nil {
		res := models.GenerationResult{TailoredText: raw, Degraded: true}
		res.Normalize()
		return res, nil
	}

	tailored := strings.TrimSpace(stringField(doc["tailoredResume"]))
	if tailored == "" {
		tailored = strings.TrimSpace(stringField(doc["tailoredText"]))
	}
	if tailored == "" {
		return models.GenerationResult{}, fmt.Errorf("%w: tailoredResume missing", apperr.ErrMalformedResponse)
	}

	res := models.GenerationResult{
		TailoredText:    tailored,
		KeywordMatches:  keywordMatches(doc["keywordMatches"]),
		ImprovementTips: improvementTips(doc["improvementTips"]),
		Changes:         changes(doc["changes"]),
	}
	res.Normalize()
	return res, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// stringList keeps the string elements of a JSON array.
func stringList(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// percentage accepts 87, 87.5 and "87%".
func percentage(raw json.RawMessage) int {
	var f float64
	if len(raw) == 0 {
		return 0
	}
	if json.Unmarshal(raw, &f) != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return 0
		}
		f = v
	}
	return int(math.Round(math.Max(0, math.Min(100, f))))
}

func keywordMatches(raw json.RawMessage) models.KeywordMatches {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return models.KeywordMatches{}
	}
	return models.KeywordMatches{
		Matched:         stringList(m["matched"]),
		Missing:         stringList(m["missing"]),
		MatchPercentage: percentage(m["matchPercentage"]),
	}
}

// improvementTips accepts tip objects, plain strings, or a mix of both.
func improvementTips(raw json.RawMessage) []models.ImprovementTip {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]models.ImprovementTip, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, models.ImprovementTip{Tip: s})
			}
			continue
		}
		var m map[string]json.RawMessage
		if json.Unmarshal(it, &m) != nil {
			continue
		}
		tip := models.ImprovementTip{
			Tip:      strings.TrimSpace(stringField(m["tip"])),
			Category: stringField(m["category"]),
			Priority: stringField(m["priority"]),
		}
		if tip.Tip != "" {
			out = append(out, tip)
		}
	}
	return out
}

func changes(raw json.RawMessage) models.Changes {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return models.Changes{}
	}
	return models.Changes{
		Added:        stringList(m["added"]),
		Modified:     stringList(m["modified"]),
		Improvements: stringList(m["improvements"]),
	}
}
