package cite

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/answers/internal/model"
)

func src(id, title string) model.Document {
	return model.Document{SourceID: id, Title: title, OriginLane: model.LaneWeb}
}

func supported(text string, docs ...model.Document) model.VerifiedSentence {
	return model.VerifiedSentence{Text: text, Supporting: docs, Confidence: 0.9}
}

func unsupported(text string) model.VerifiedSentence {
	return model.VerifiedSentence{Text: text, Confidence: 0.1}
}

func TestAnnotate_AssignsMarkersInFirstSeenOrder(t *testing.T) {
	a := src("https://a.example/1", "Alpha")
	b := src("https://b.example/2", "Beta")

	text, citations := Annotate([]model.VerifiedSentence{
		supported("First claim.", a),
		supported("Second claim.", b, a),
	}, 0.6)

	assert.Equal(t, "First claim. [1] Second claim. [2] [1]", text)
	require.Len(t, citations, 2)
	assert.Equal(t, 1, citations[0].Marker)
	assert.Equal(t, "https://a.example/1", citations[0].Document.SourceID)
	assert.Equal(t, 2, citations[1].Marker)
}

func TestAnnotate_ReusesMarkerForRepeatedSource(t *testing.T) {
	a := src("https://a.example/1", "Alpha")

	text, citations := Annotate([]model.VerifiedSentence{
		supported("One.", a),
		supported("Two.", a),
		supported("Three.", a),
	}, 0.6)

	assert.Equal(t, "One. [1] Two. [1] Three. [1]", text)
	require.Len(t, citations, 1)
}

func TestAnnotate_UnsupportedSentenceCarriesNoMarker(t *testing.T) {
	a := src("https://a.example/1", "Alpha")

	text, citations := Annotate([]model.VerifiedSentence{
		supported("Backed claim.", a),
		unsupported("Speculative claim."),
	}, 0.6)

	assert.Equal(t, "Backed claim. [1] Speculative claim.", text)
	require.Len(t, citations, 1)
}

func TestAnnotate_CapsMarkersPerSentence(t *testing.T) {
	docs := make([]model.Document, 5)
	for i := range docs {
		docs[i] = src(fmt.Sprintf("https://s.example/%d", i), fmt.Sprintf("Doc %d", i))
	}

	text, citations := Annotate([]model.VerifiedSentence{
		supported("Heavily cited claim.", docs...),
	}, 0.6)

	assert.Equal(t, 3, strings.Count(text, "["))
	require.Len(t, citations, 3)
}

// Every marker in the text must resolve to exactly one citation entry.
func TestAnnotate_MarkerSoundness(t *testing.T) {
	a := src("https://a.example/1", "Alpha")
	b := src("https://b.example/2", "Beta")
	c := src("https://c.example/3", "Gamma")

	text, citations := Annotate([]model.VerifiedSentence{
		supported("One.", a, b),
		unsupported("Two."),
		supported("Three.", c, a),
	}, 0.6)

	seen := make(map[int]bool)
	for _, cit := range citations {
		assert.False(t, seen[cit.Marker], "duplicate marker %d", cit.Marker)
		seen[cit.Marker] = true
		assert.Contains(t, text, fmt.Sprintf("[%d]", cit.Marker))
	}
	for n := 1; n <= len(citations); n++ {
		assert.True(t, seen[n], "marker numbering must be dense, missing %d", n)
	}
}

func TestAnnotate_Empty(t *testing.T) {
	text, citations := Annotate(nil, 0.6)
	assert.Empty(t, text)
	assert.Empty(t, citations)
}

func TestRenderSources(t *testing.T) {
	out := RenderSources([]model.Citation{
		{Marker: 1, Document: src("https://a.example/1", "Alpha")},
		{Marker: 2, Document: src("passage:9", "")},
	})

	assert.Contains(t, out, "Sources:\n")
	assert.Contains(t, out, "[1] Alpha - https://a.example/1")
	assert.Contains(t, out, "[2] passage:9")
}

func TestRenderSources_Empty(t *testing.T) {
	assert.Empty(t, RenderSources(nil))
}
