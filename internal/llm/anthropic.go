package llm

import (
	"context"

	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/pkg/anthropic"
)

// anthropicProvider adapts pkg/anthropic to the Provider interface. The SDK
// already surfaces rate-limit and overload failures in error text, which the
// resilience transient check recognizes.
type anthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider wraps an Anthropic client as a Provider.
func NewAnthropicProvider(client anthropic.Client) Provider {
	return &anthropicProvider{client: client}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

func (p *anthropicProvider) Complete(ctx context.Context, mdl string, req Request) (*model.GenerationResult, error) {
	resp, err := p.client.CreateMessage(ctx, toMessageRequest(mdl, req))
	if err != nil {
		return nil, err
	}
	return fromMessageResponse(resp), nil
}

func (p *anthropicProvider) Stream(ctx context.Context, mdl string, req Request, onText func(string)) (*model.GenerationResult, error) {
	resp, err := p.client.StreamMessage(ctx, toMessageRequest(mdl, req), onText)
	if err != nil {
		return nil, err
	}
	return fromMessageResponse(resp), nil
}

func toMessageRequest(mdl string, req Request) anthropic.MessageRequest {
	return anthropic.MessageRequest{
		Model:       mdl,
		MaxTokens:   int64(req.MaxTokens),
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
}

func fromMessageResponse(resp *anthropic.MessageResponse) *model.GenerationResult {
	return &model.GenerationResult{
		Content:      resp.Text,
		Provider:     "anthropic",
		Model:        resp.Model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
}
