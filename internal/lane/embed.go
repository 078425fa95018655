package lane

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/pkg/jina"
)

// JinaEmbedder adapts the Jina embeddings API to the Embedder interface.
type JinaEmbedder struct {
	client jina.Client
}

// NewJinaEmbedder creates an Embedder backed by Jina.
func NewJinaEmbedder(client jina.Client) *JinaEmbedder {
	return &JinaEmbedder{client: client}
}

// EmbedText embeds a single text.
func (e *JinaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, eris.New("embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
