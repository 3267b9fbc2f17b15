package models

// JSONSchema is the subset of JSON Schema used to describe step and trigger configuration shapes.
type JSONSchema struct {
	Type                 string               `json:"type"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	AdditionalProperties *bool                `json:"additionalProperties,omitempty"`
	Title                string               `json:"title,omitempty"`
	Description          string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	Minimum     *float64             `json:"minimum,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// RegisteredComponent describes a step or trigger kind offered to the builder palette.
type RegisteredComponent struct {
	Type          string      `json:"type"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Schema        *JSONSchema `json:"schema"`
	DefaultConfig any         `json:"defaultConfig"`
}
