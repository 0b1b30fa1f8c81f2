package llm

// BuildTransactionsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map. It is sent to the provider as an output constraint and also
// used locally to validate what came back. The top level is an object, not a
// bare array, because json_object response mode requires one.
func BuildTransactionsJSONSchema() map[string]any {
	item := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			// Providers answer with a number or a formatted string; both pass.
			"amount":        map[string]any{"type": []string{"number", "string"}},
			"currency":      map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"occurredOn":    map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"lineIndex":     map[string]any{"type": "integer", "minimum": 1},
			"direction":     map[string]any{"type": "string", "enum": []string{"debit", "credit"}},
			"merchant":      map[string]any{"type": "string"},
			"paymentMethod": map[string]any{"type": "string"},
			"note":          map[string]any{"type": "string"},
			"category":      map[string]any{"type": "string"},
		},
		"required": []string{"amount", "currency", "occurredOn", "lineIndex"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"transactions": map[string]any{
				"type":  "array",
				"items": item,
			},
		},
		"required": []string{"transactions"},
	}
}
