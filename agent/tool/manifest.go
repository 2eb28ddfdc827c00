package tool

type ManifestTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type Manifest struct {
	SchemaVersion       string         `json:"schema_version"`
	NameForHuman        string         `json:"name_for_human"`
	NameForModel        string         `json:"name_for_model"`
	DescriptionForHuman string         `json:"description_for_human"`
	DescriptionForModel string         `json:"description_for_model"`
	Tools               []ManifestTool `json:"tools"`
	Auth                map[string]any `json:"auth"`
}

func (r *Registry) Manifest() Manifest {
	tools := make([]ManifestTool, 0, len(r.defs))
	for _, d := range r.defs {
		tools = append(tools, ManifestTool{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.JSONSchema(),
		})
	}
	return Manifest{
		SchemaVersion:       "v1",
		NameForHuman:        "Store Assistant",
		NameForModel:        "store_assistant",
		DescriptionForHuman: "Conversational shopping assistant. Search, browse, add to cart, and checkout via chat.",
		DescriptionForModel: "Query products, manage the shopper's cart, start checkout and look up orders.",
		Tools:               tools,
		Auth:                map[string]any{"type": "none"},
	}
}
