// Package inference defines the boundary to external multimodal models: the
// request/response shapes, the provider interface, the candidate registry and
// the client that drives the fallback policy over them.
package inference

import "context"

// Task identifies which candidate list a request draws from.
type Task string

const (
	TaskGrading Task = "grading"
	TaskListing Task = "listing"
	TaskMarket  Task = "market"
)

// Image is an inline binary image part.
type Image struct {
	MIMEType string
	Data     []byte
}

// Schema types, a subset of JSON Schema understood by every provider.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Schema describes the JSON document a model must return.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Request is one inference call. It is built fresh per call and not mutated
// after construction.
type Request struct {
	Task   Task
	Images []Image
	Prompt string
	Schema *Schema
}

// Usage is token consumption reported by a provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the raw text payload of a successful call, expected to be JSON.
type Response struct {
	Text  string
	Usage Usage
}

// Provider sends a request to one model. Failures should be returned as
// *resilience.ModelError so they can be classified for fallback.
type Provider interface {
	Generate(ctx context.Context, model string, req Request) (*Response, error)
}
