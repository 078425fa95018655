package llm

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/internal/resilience"
	"github.com/sells-group/answers/pkg/perplexity"
)

// perplexityProvider adapts pkg/perplexity to the Provider interface.
type perplexityProvider struct {
	client perplexity.Client
}

// NewPerplexityProvider wraps a Perplexity client as a Provider.
func NewPerplexityProvider(client perplexity.Client) Provider {
	return &perplexityProvider{client: client}
}

func (p *perplexityProvider) Name() string { return "perplexity" }

func (p *perplexityProvider) Complete(ctx context.Context, mdl string, req Request) (*model.GenerationResult, error) {
	creq := perplexity.ChatCompletionRequest{
		Model:       mdl,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		mt := req.MaxTokens
		creq.MaxTokens = &mt
	}
	if req.System != "" {
		creq.Messages = append(creq.Messages, perplexity.Message{Role: "system", Content: req.System})
	}
	creq.Messages = append(creq.Messages, perplexity.Message{Role: "user", Content: req.Prompt})

	resp, err := p.client.ChatCompletion(ctx, creq)
	if err != nil {
		var apiErr *perplexity.APIError
		if errors.As(err, &apiErr) {
			return nil, resilience.ClassifyHTTPStatus(err, apiErr.StatusCode)
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("perplexity: empty choices")
	}

	return &model.GenerationResult{
		Content:      resp.Choices[0].Message.Content,
		Provider:     "perplexity",
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Stream falls back to a blocking completion; the API offers no stream we
// consume yet, so the whole text arrives in one callback.
func (p *perplexityProvider) Stream(ctx context.Context, mdl string, req Request, onText func(string)) (*model.GenerationResult, error) {
	res, err := p.Complete(ctx, mdl, req)
	if err != nil {
		return nil, err
	}
	if onText != nil {
		onText(res.Content)
	}
	return res, nil
}
