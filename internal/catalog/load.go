package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed items.json
var defaultItemsJSON []byte

// itemsSchema is the JSON Schema every catalog file must conform to.
// Validation happens before decoding so a malformed catalog fails loudly at
// startup instead of producing zero-valued items.
var itemsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"items": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":          map[string]any{"type": "string", "minLength": float64(1)},
					"name":        map[string]any{"type": "string", "minLength": float64(1)},
					"category":    map[string]any{"type": "string", "minLength": float64(1)},
					"rarity":      map[string]any{"type": "string", "enum": []any{"common", "uncommon", "rare"}},
					"description": map[string]any{"type": "string"},
					"price":       map[string]any{"type": "integer", "minimum": float64(0)},
				},
				"required": []any{"id", "name", "category", "rarity"},
			},
		},
	},
	"required": []any{"items"},
}

// Load parses and validates a catalog JSON document.
func Load(data []byte) (*Catalog, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse catalog JSON: %w", err)
	}

	compiled, err := compileItemsSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := compiled.Validate(parsed); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	var doc struct {
		Items []Item `json:"items"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Items))
	for _, it := range doc.Items {
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = true
	}

	return New(doc.Items), nil
}

// Default returns the embedded built-in catalog.
func Default() (*Catalog, error) {
	return Load(defaultItemsJSON)
}

func compileItemsSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema://catalog-items.json", itemsSchema); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	return c.Compile("schema://catalog-items.json")
}
