package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/answers/internal/model"
)

// geminiProvider adapts the Google GenAI SDK to the Provider interface.
type geminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini-backed Provider.
func NewGeminiProvider(ctx context.Context, apiKey string) (Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: create genai client")
	}
	return &geminiProvider{client: client}, nil
}

func (p *geminiProvider) Name() string { return "google" }

func (p *geminiProvider) Complete(ctx context.Context, mdl string, req Request) (*model.GenerationResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, mdl, contents, p.config(req))
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini generate")
	}

	text := resp.Text()
	if text == "" {
		return nil, eris.New("llm: gemini returned no text")
	}

	res := &model.GenerationResult{
		Content:  text,
		Provider: p.Name(),
		Model:    mdl,
	}
	if resp.UsageMetadata != nil {
		res.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		res.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return res, nil
}

func (p *geminiProvider) Stream(ctx context.Context, mdl string, req Request, onText func(string)) (*model.GenerationResult, error) {
	res, err := p.Complete(ctx, mdl, req)
	if err != nil {
		return nil, err
	}
	if onText != nil {
		onText(res.Content)
	}
	return res, nil
}

func (p *geminiProvider) config(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	return cfg
}
