package lane

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/pkg/vectorstore"
)

// Embedder converts text into a dense vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorLane retrieves evidence by embedding the query and running a
// similarity search against the passage index.
type VectorLane struct {
	embedder Embedder
	store    vectorstore.Searcher
	nowFunc  func() time.Time
}

// NewVectorLane creates a vector similarity lane.
func NewVectorLane(embedder Embedder, store vectorstore.Searcher) *VectorLane {
	return &VectorLane{embedder: embedder, store: store, nowFunc: time.Now}
}

// Kind returns model.LaneVector.
func (l *VectorLane) Kind() model.LaneKind {
	return model.LaneVector
}

// Retrieve embeds the query text and searches the passage index.
func (l *VectorLane) Retrieve(ctx context.Context, query model.Query, topK int) ([]model.Document, error) {
	vec, err := l.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		return nil, eris.Wrap(err, "lane: embed query")
	}

	results, err := l.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, eris.Wrap(err, "lane: vector search")
	}

	now := l.nowFunc().UTC()
	docs := make([]model.Document, 0, len(results))
	for _, r := range results {
		doc := model.Document{
			Content:        r.Content,
			SourceID:       r.SourceID,
			Title:          r.Title,
			RelevanceScore: r.Score,
			RetrievedAt:    now,
			OriginLane:     model.LaneVector,
		}
		if doc.SourceID == "" {
			doc.SourceID = r.ID
		}
		if author, ok := r.Metadata["author"]; ok {
			doc.Author = author
		}
		if published, ok := r.Metadata["published_at"]; ok {
			if ts, err := time.Parse(time.RFC3339, published); err == nil {
				doc.PublishedAt = ts
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
