package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/resilience"
)

const (
	providerName     = "anthropic"
	defaultMaxTokens = 4096
)

const schemaInstruction = "Respond with a single JSON object and nothing else. " +
	"It must conform to this JSON Schema:\n"

// Provider adapts a Client to inference.Provider. Claude has no native
// response schema, so the schema is sent as a cached system block.
type Provider struct {
	client    Client
	maxTokens int64
}

// NewProvider wraps client. maxTokens <= 0 uses the default.
func NewProvider(client Client, maxTokens int64) *Provider {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Provider{client: client, maxTokens: maxTokens}
}

// Generate implements inference.Provider.
func (p *Provider) Generate(ctx context.Context, model string, req inference.Request) (*inference.Response, error) {
	msg := Message{Role: "user", Content: req.Prompt}
	for _, img := range req.Images {
		msg.Images = append(msg.Images, Image{MediaType: img.MIMEType, Data: img.Data})
	}

	mr := MessageRequest{
		Model:     model,
		MaxTokens: p.maxTokens,
		Messages:  []Message{msg},
	}
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, &resilience.ModelError{Provider: providerName, Model: model, Message: "encode schema", Err: err}
		}
		mr.System = []SystemBlock{{
			Text:         schemaInstruction + string(schema),
			CacheControl: &CacheControl{},
		}}
	}

	resp, err := p.client.CreateMessage(ctx, mr)
	if err != nil {
		return nil, toModelError(model, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &resilience.ModelError{Provider: providerName, Model: model, Message: "empty response"}
	}

	return &inference.Response{
		Text: text,
		Usage: inference.Usage{
			InputTokens:  resp.Usage.InputTokens + resp.Usage.CacheCreationInputTokens + resp.Usage.CacheReadInputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

func toModelError(model string, err error) error {
	me := &resilience.ModelError{Provider: providerName, Model: model, Err: err}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		me.StatusCode = apiErr.StatusCode
		me.Message = apiErr.Error()
	}
	return me
}
