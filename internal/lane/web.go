package lane

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/pkg/jina"
)

// WebLane retrieves evidence via full-text web search.
type WebLane struct {
	search jina.Client
	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewWebLane creates a web search lane backed by the given client.
func NewWebLane(search jina.Client) *WebLane {
	return &WebLane{search: search, nowFunc: time.Now}
}

// Kind returns model.LaneWeb.
func (l *WebLane) Kind() model.LaneKind {
	return model.LaneWeb
}

// Retrieve runs a web search and converts results into documents. Relevance
// decays linearly with result rank since the search API does not expose a
// score.
func (l *WebLane) Retrieve(ctx context.Context, query model.Query, topK int) ([]model.Document, error) {
	resp, err := l.search.Search(ctx, query.Text, jina.WithTopK(topK))
	if err != nil {
		return nil, eris.Wrap(err, "lane: web search")
	}

	now := l.nowFunc().UTC()
	docs := make([]model.Document, 0, len(resp.Data))
	for i, r := range resp.Data {
		content := r.Content
		if content == "" {
			content = r.Description
		}
		doc := model.Document{
			Content:        content,
			SourceID:       r.URL,
			Title:          r.Title,
			RelevanceScore: rankScore(i, len(resp.Data)),
			RetrievedAt:    now,
			OriginLane:     model.LaneWeb,
		}
		if r.PublishedAt != "" {
			if ts, err := time.Parse(time.RFC3339, r.PublishedAt); err == nil {
				doc.PublishedAt = ts
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// rankScore maps a zero-based rank onto (0,1], top rank highest.
func rankScore(rank, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-rank) / float64(total)
}
