package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/payment-review/constants"
)

// NormalizeExtractionsJSON makes a loosely-shaped extraction response schema friendly:
//   - renames known synonyms to the canonical extraction names
//   - drops null or malformed extractions
//   - coerces numeric values to strings and trims them
//   - removes unknown top-level keys
func NormalizeExtractionsJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	for k := range maps.Clone(m) {
		if k != "extractions" && k != "compoundExtractions" {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	if specific, ok := m["extractions"].(map[string]any); ok {
		renamed := func(from, to string) {
			if v, ok := specific[from]; ok {
				if _, exists := specific[to]; !exists {
					specific[to] = v
				}
				delete(specific, from)
				dropped = append(dropped, from+"->"+to)
			}
		}
		renamed("recipient", constants.ExtractionRecipient)
		renamed("amount", constants.ExtractionAmount)
		renamed("purpose", constants.ExtractionPurpose)
		renamed("paymentReference", constants.ExtractionPurpose)

		for name, v := range maps.Clone(specific) {
			e, ok := v.(map[string]any)
			if !ok {
				delete(specific, name)
				dropped = append(dropped, name+"(type)")
				continue
			}
			if reason := normalizeExtraction(name, e); reason != "" {
				delete(specific, name)
				dropped = append(dropped, name+"("+reason+")")
			}
		}
	}

	if compound, ok := m["compoundExtractions"].(map[string]any); ok {
		for group, v := range maps.Clone(compound) {
			rows, ok := v.([]any)
			if !ok {
				delete(compound, group)
				dropped = append(dropped, group+"(type)")
				continue
			}
			kept := make([]any, 0, len(rows))
			for _, row := range rows {
				r, ok := row.(map[string]any)
				if !ok {
					continue
				}
				for name, ev := range maps.Clone(r) {
					e, ok := ev.(map[string]any)
					if !ok || normalizeExtraction(name, e) != "" {
						delete(r, name)
					}
				}
				kept = append(kept, r)
			}
			compound[group] = kept
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("extract.extractions.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// normalizeExtraction fixes e in place and returns a non-empty reason when it
// cannot be kept.
func normalizeExtraction(name string, e map[string]any) string {
	switch t := e["value"].(type) {
	case string:
		e["value"] = strings.TrimSpace(t)
	case float64:
		e["value"] = strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return "null"
	default:
		return "value-type"
	}
	if ent, ok := e["entity"].(string); ok {
		e["entity"] = strings.ToLower(strings.TrimSpace(ent))
	}
	if _, ok := e["box"].(map[string]any); !ok {
		delete(e, "box")
	}
	e["name"] = name
	return ""
}
