package analysis

import (
	"github.com/okian/sect/internal/domain/model"
)

// Type names follow JSON Schema.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Schema is a provider-neutral description of the structured output requested
// from the model. It marshals to a JSON Schema subset.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	// Order keeps property order stable for providers that honour it.
	Order []string `json:"-"`
}

func object(order []string, props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Order: order, Required: required}
}

func enum[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// ResponseSchema describes a disciple record without its id and fingerprint.
func ResponseSchema() *Schema {
	str := func() *Schema { return &Schema{Type: TypeString} }
	num := func() *Schema { return &Schema{Type: TypeNumber} }

	trait := object(
		[]string{"name", "isPositive", "description", "tier"},
		map[string]*Schema{
			"name":        str(),
			"isPositive":  {Type: TypeBoolean},
			"description": str(),
			"tier":        {Type: TypeString, Enum: enum([]model.Tier{model.TierS, model.TierA, model.TierB, model.TierC, model.TierF})},
		},
		"name", "isPositive", "tier",
	)

	skill := object(
		[]string{"name", "level"},
		map[string]*Schema{"name": str(), "level": num()},
		"name", "level",
	)

	statKeys := requiredStats
	statProps := make(map[string]*Schema, len(statKeys))
	for _, k := range statKeys {
		statProps[k] = num()
	}
	stats := object(statKeys, statProps, statKeys...)

	return object(
		[]string{"name", "originClass", "stats", "traits", "skills", "primaryElement", "verdict", "role", "analysis", "score"},
		map[string]*Schema{
			"name":           str(),
			"originClass":    str(),
			"stats":          stats,
			"traits":         {Type: TypeArray, Items: trait},
			"skills":         {Type: TypeArray, Items: skill},
			"primaryElement": {Type: TypeString, Enum: enum(model.Elements)},
			"verdict":        {Type: TypeString, Enum: enum(model.Verdicts)},
			"role":           {Type: TypeString, Enum: enum(model.Roles)},
			"analysis":       {Type: TypeString, Description: "Một câu lý do cực ngắn gọn và súc tích (dưới 20 từ)."},
			"score":          num(),
		},
		requiredFields...,
	)
}

var requiredFields = []string{"name", "originClass", "stats", "traits", "primaryElement", "verdict", "role", "analysis", "score"}

var requiredStats = []string{"potential", "aptitude", "bone", "intelligence", "charm", "luck"}
