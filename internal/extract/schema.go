package extract

// BuildExtractionsJSONSchema returns the JSON-Schema (draft 2020-12 subset) that an
// extraction response must satisfy before it is mapped.
func BuildExtractionsJSONSchema() map[string]any {
	extraction := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":   map[string]any{"type": "string"},
			"entity": map[string]any{"type": "string", "minLength": 1},
			"value":  map[string]any{"type": "string"},
			"box":    boxProp(),
		},
		"required": []string{"entity", "value"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"extractions": map[string]any{
				"type":                 "object",
				"additionalProperties": extraction,
			},
			"compoundExtractions": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":                 "object",
						"additionalProperties": extraction,
					},
				},
			},
		},
		"required": []string{"extractions"},
	}
}

// BuildProvidersJSONSchema returns the schema for the payment provider list.
func BuildProvidersJSONSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":          map[string]any{"type": "string", "minLength": 1},
				"name":        map[string]any{"type": "string"},
				"packageName": map[string]any{"type": "string"},
			},
			"required": []string{"id", "name"},
		},
	}
}

func boxProp() map[string]any {
	num := map[string]any{"type": "number", "minimum": 0}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page":   map[string]any{"type": "integer", "minimum": 0},
			"left":   num,
			"top":    num,
			"width":  num,
			"height": num,
		},
	}
}
