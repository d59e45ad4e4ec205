// Package gemini adapts the Google GenAI SDK to the inference.Provider
// interface.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/resilience"
)

const providerName = "gemini"

// contentGenerator is the slice of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends structured-output requests to Gemini models.
type Client struct {
	models      contentGenerator
	temperature *float32
}

// Option configures a Client.
type Option func(*Client)

// WithTemperature sets the sampling temperature for every call.
func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = &t }
}

// NewClient creates a Gemini client. baseURL is optional and only used to
// point at a proxy or test server.
func NewClient(ctx context.Context, apiKey, baseURL string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return newClient(client.Models, opts...), nil
}

func newClient(models contentGenerator, opts ...Option) *Client {
	c := &Client{models: models}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate implements inference.Provider.
func (c *Client) Generate(ctx context.Context, model string, req inference.Request) (*inference.Response, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	cfg := &genai.GenerateContentConfig{
		Temperature: c.temperature,
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.Schema)
	}

	resp, err := c.models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return nil, toModelError(model, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &resilience.ModelError{
			Provider: providerName,
			Model:    model,
			Message:  "empty response",
		}
	}

	out := &inference.Response{Text: text}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = inference.Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
	}
	return out, nil
}

// toModelError maps SDK failures onto the provider-neutral error. API errors
// keep their HTTP code and status text; anything else is a transport failure.
func toModelError(model string, err error) error {
	me := &resilience.ModelError{Provider: providerName, Model: model, Err: err}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		me.StatusCode, me.Status, me.Message = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr):
		me.StatusCode, me.Status, me.Message = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	}
	return me
}

func toSchema(s *inference.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}
