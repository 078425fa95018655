// Package cite assigns stable numeric markers to supporting sources and
// renders the annotated answer text.
package cite

import (
	"fmt"
	"strings"

	"github.com/sells-group/answers/internal/model"
)

// maxMarkersPerSentence caps how many citations a single sentence carries.
const maxMarkersPerSentence = 3

// Annotate appends citation markers to each supported sentence and returns
// the annotated text plus the citation list. Markers are assigned in first
// appearance order and every marker points at exactly one unique source, so
// the same document cited twice reuses its number.
func Annotate(sentences []model.VerifiedSentence, threshold float64) (string, []model.Citation) {
	markerBySource := make(map[string]int)
	var citations []model.Citation

	var b strings.Builder
	for i := range sentences {
		s := &sentences[i]
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s.Text)

		if !s.Supported(threshold) {
			continue
		}
		for j, doc := range s.Supporting {
			if j >= maxMarkersPerSentence {
				break
			}
			marker, seen := markerBySource[doc.SourceID]
			if !seen {
				marker = len(citations) + 1
				markerBySource[doc.SourceID] = marker
				citations = append(citations, model.Citation{Marker: marker, Document: doc})
			}
			fmt.Fprintf(&b, " [%d]", marker)
		}
	}

	return b.String(), citations
}

// RenderSources formats the citation list as a trailing sources block.
func RenderSources(citations []model.Citation) string {
	if len(citations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Sources:\n")
	for _, c := range citations {
		label := c.Document.Title
		if label == "" {
			label = c.Document.SourceID
		}
		fmt.Fprintf(&b, "[%d] %s", c.Marker, label)
		if c.Document.Title != "" && c.Document.SourceID != "" {
			fmt.Fprintf(&b, " - %s", c.Document.SourceID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
