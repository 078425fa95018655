package retrieval

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/model"
)

func testLanesConfig() config.LanesConfig {
	return config.LanesConfig{
		WebEnabled: true, VectorEnabled: true, GraphEnabled: true,
		TotalBudgetMS: 5000, TopK: 8,
		WebBudgetShare: 0.5, VectorBudgetShare: 0.3, GraphBudgetShare: 0.3,
		WebWeight: 0.35, VectorWeight: 0.4, GraphWeight: 0.25,
		DedupThreshold: 0.8,
	}
}

func doc(lane model.LaneKind, sourceID, title string, relevance float64) model.Document {
	return model.Document{
		Content:        "content of " + title,
		SourceID:       sourceID,
		Title:          title,
		RelevanceScore: relevance,
		OriginLane:     lane,
	}
}

func TestFuse_RanksByWeightedScore(t *testing.T) {
	f := NewFuser(testLanesConfig())

	fused := f.Fuse([]model.Document{
		doc(model.LaneWeb, "https://a.example/x", "Alpha result", 1.0),    // 0.35
		doc(model.LaneVector, "passage:1", "Beta passage", 1.0),           // 0.40
		doc(model.LaneGraph, "ent:1", "Gamma entity", 1.0),                // 0.25
	})

	require.Len(t, fused.Documents, 3)
	assert.Equal(t, model.LaneVector, fused.Documents[0].OriginLane)
	assert.Equal(t, model.LaneWeb, fused.Documents[1].OriginLane)
	assert.Equal(t, model.LaneGraph, fused.Documents[2].OriginLane)
	assert.InDelta(t, 0.4, fused.FusedScores[0], 1e-9)
}

func TestFuse_DedupByURL(t *testing.T) {
	f := NewFuser(testLanesConfig())

	fused := f.Fuse([]model.Document{
		doc(model.LaneWeb, "https://www.example.com/rag/", "Intro to RAG", 0.9),
		doc(model.LaneVector, "https://example.com/rag", "Completely different words here", 0.5),
	})

	require.Len(t, fused.Documents, 1)
	// Web doc wins: 0.35*0.9 > 0.4*0.5.
	assert.Equal(t, model.LaneWeb, fused.Documents[0].OriginLane)
}

func TestFuse_DedupByTitleSimilarity(t *testing.T) {
	f := NewFuser(testLanesConfig())

	fused := f.Fuse([]model.Document{
		doc(model.LaneWeb, "https://a.example/1", "Retrieval Augmented Generation Explained", 1.0),
		doc(model.LaneWeb, "https://b.example/2", "Retrieval Augmented Generation explained", 0.8),
		doc(model.LaneWeb, "https://c.example/3", "An entirely unrelated topic", 0.5),
	})

	require.Len(t, fused.Documents, 2)
	assert.Equal(t, "https://a.example/1", fused.Documents[0].SourceID)
}

func TestFuse_DedupInvariant(t *testing.T) {
	f := NewFuser(testLanesConfig())

	docs := []model.Document{
		doc(model.LaneWeb, "https://a.example/1", "What is RAG", 1.0),
		doc(model.LaneWeb, "https://a.example/1?utm=x", "What is RAG", 0.9),
		doc(model.LaneVector, "p:1", "what is rag", 0.8),
		doc(model.LaneGraph, "ent:1", "Vector databases overview", 0.7),
		doc(model.LaneVector, "p:2", "Vector Databases: Overview", 0.6),
	}
	fused := f.Fuse(docs)

	for i := range fused.Documents {
		for j := i + 1; j < len(fused.Documents); j++ {
			a, b := fused.Documents[i], fused.Documents[j]
			assert.NotEqual(t, normalizeURL(a.SourceID), normalizeURL(b.SourceID))
			sim := JaccardSimilarity(titleTokens(a.Title), titleTokens(b.Title))
			assert.Less(t, sim, f.dedupThreshold,
				"documents %q and %q too similar", a.Title, b.Title)
		}
	}
}

func TestFuse_OrderIndependent(t *testing.T) {
	f := NewFuser(testLanesConfig())

	docs := []model.Document{
		doc(model.LaneWeb, "https://a.example/1", "What is RAG", 1.0),
		doc(model.LaneWeb, "https://b.example/2", "RAG pipelines in production", 0.7),
		doc(model.LaneVector, "p:1", "what is rag", 0.95),
		doc(model.LaneVector, "p:2", "Evaluating retrieval quality", 0.5),
		doc(model.LaneGraph, "ent:1", "Retrieval Augmented Generation", 0.9),
	}

	baseline := f.Fuse(docs)
	for i := 0; i < 20; i++ {
		shuffled := make([]model.Document, len(docs))
		copy(shuffled, docs)
		rand.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := f.Fuse(shuffled)
		require.Equal(t, baseline.Documents, got.Documents, "permutation %d", i)
		require.Equal(t, baseline.FusedScores, got.FusedScores, "permutation %d", i)
	}
}

func TestFuse_Empty(t *testing.T) {
	f := NewFuser(testLanesConfig())
	fused := f.Fuse(nil)
	assert.Empty(t, fused.Documents)
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.Example.com/Path/", "example.com/Path"},
		{"http://example.com/path?q=1#frag", "example.com/path"},
		{"ent:rag", "ent:rag"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeURL(tc.in), tc.in)
	}
}

func TestTitleTokens_Normalization(t *testing.T) {
	a := titleTokens("Café RAG: a survey")
	b := titleTokens("cafe rag a survey")
	assert.Equal(t, 1.0, JaccardSimilarity(a, b))
}

func TestJaccardSimilarity_EmptySets(t *testing.T) {
	assert.Equal(t, 0.0, JaccardSimilarity(nil, titleTokens("x")))
	assert.Equal(t, 0.0, JaccardSimilarity(titleTokens(""), titleTokens("")))
}
