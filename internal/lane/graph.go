package lane

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/pkg/graphstore"
)

// GraphLane retrieves structured facts from the knowledge graph and renders
// them as evidence passages.
type GraphLane struct {
	client  graphstore.Client
	depth   int
	nowFunc func() time.Time
}

// NewGraphLane creates a graph fact lane with the given expansion depth.
func NewGraphLane(client graphstore.Client, depth int) *GraphLane {
	if depth <= 0 {
		depth = 2
	}
	return &GraphLane{client: client, depth: depth, nowFunc: time.Now}
}

// Kind returns model.LaneGraph.
func (l *GraphLane) Kind() model.LaneKind {
	return model.LaneGraph
}

// Retrieve looks up entities for the query and converts each into a document.
func (l *GraphLane) Retrieve(ctx context.Context, query model.Query, topK int) ([]model.Document, error) {
	resp, err := l.client.LookupEntities(ctx, query.Text, l.depth)
	if err != nil {
		return nil, eris.Wrap(err, "lane: graph lookup")
	}

	now := l.nowFunc().UTC()
	entities := resp.Entities
	if topK > 0 && len(entities) > topK {
		entities = entities[:topK]
	}

	docs := make([]model.Document, 0, len(entities))
	for _, e := range entities {
		docs = append(docs, model.Document{
			Content:        e.FactText(),
			SourceID:       e.ID,
			Title:          e.Name,
			RelevanceScore: clampScore(e.Score),
			RetrievedAt:    now,
			PublishedAt:    e.UpdatedAt,
			OriginLane:     model.LaneGraph,
		})
	}
	return docs, nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
