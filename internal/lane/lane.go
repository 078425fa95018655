// Package lane defines the independent retrieval strategies the orchestrator
// fans out to: web search, vector similarity, and graph facts.
package lane

import (
	"context"

	"github.com/sells-group/answers/internal/model"
)

// Lane is one retrieval strategy. Implementations convert their backing
// service's results into evidence documents with relevance in [0,1].
type Lane interface {
	Kind() model.LaneKind
	Retrieve(ctx context.Context, query model.Query, topK int) ([]model.Document, error)
}
