package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/answers/internal/model"
)

const systemPrompt = `You are a research assistant. Answer the question using only the evidence provided. Be direct and factual. If the evidence does not cover the question, say so. Do not invent sources.`

// maxEvidenceChars bounds how much of each document goes into the prompt.
const maxEvidenceChars = 1200

// buildPrompt renders the user question plus numbered evidence blocks.
func buildPrompt(q model.Query, ev *model.FusedEvidence) string {
	var b strings.Builder

	if q.UserContext != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", q.UserContext)
	}
	fmt.Fprintf(&b, "Question: %s\n\n", q.Text)

	if ev == nil || len(ev.Documents) == 0 {
		b.WriteString("No evidence was retrieved. Answer only if the question needs no external facts.\n")
		return b.String()
	}

	b.WriteString("Evidence:\n")
	for i, doc := range ev.Documents {
		content := truncate(doc.Content, maxEvidenceChars)
		fmt.Fprintf(&b, "\n[%d] %s (%s)\n%s\n", i+1, doc.Title, doc.SourceID, content)
	}
	return b.String()
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// degradedDraft composes a fallback answer straight from the evidence when
// no model could be invoked. The verifier and citation pass still run over
// it, so the caller gets sourced text rather than a hard failure.
func degradedDraft(ev *model.FusedEvidence) string {
	var b strings.Builder
	b.WriteString("No language model was available; the most relevant retrieved evidence follows.")

	limit := 3
	if len(ev.Documents) < limit {
		limit = len(ev.Documents)
	}
	for _, doc := range ev.Documents[:limit] {
		content := strings.TrimSpace(doc.Content)
		if idx := strings.IndexAny(content, ".!?"); idx > 0 && idx < len(content)-1 {
			content = content[:idx+1]
		}
		if content == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(content)
	}
	return b.String()
}
