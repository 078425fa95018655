package retrieval

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/model"
)

// Fuser deduplicates documents from multiple lanes and ranks them by a
// lane-weighted relevance score. Fusion is deterministic for a given input
// set regardless of the order lanes completed in.
type Fuser struct {
	webWeight      float64
	vectorWeight   float64
	graphWeight    float64
	dedupThreshold float64
}

// NewFuser creates a Fuser from the lane configuration.
func NewFuser(cfg config.LanesConfig) *Fuser {
	f := &Fuser{
		webWeight:      cfg.WebWeight,
		vectorWeight:   cfg.VectorWeight,
		graphWeight:    cfg.GraphWeight,
		dedupThreshold: cfg.DedupThreshold,
	}
	if f.webWeight <= 0 {
		f.webWeight = 0.35
	}
	if f.vectorWeight <= 0 {
		f.vectorWeight = 0.4
	}
	if f.graphWeight <= 0 {
		f.graphWeight = 0.25
	}
	if f.dedupThreshold <= 0 {
		f.dedupThreshold = 0.8
	}
	return f
}

func (f *Fuser) laneWeight(kind model.LaneKind) float64 {
	switch kind {
	case model.LaneWeb:
		return f.webWeight
	case model.LaneVector:
		return f.vectorWeight
	case model.LaneGraph:
		return f.graphWeight
	default:
		return 0
	}
}

type scoredDoc struct {
	doc    model.Document
	score  float64
	urlKey string
	tokens map[string]struct{}
}

// Fuse deduplicates and ranks documents. Exact URL duplicates and
// near-duplicate titles (Jaccard similarity above the threshold) are
// collapsed, keeping the higher-scoring document.
func (f *Fuser) Fuse(docs []model.Document) *model.FusedEvidence {
	scored := make([]scoredDoc, 0, len(docs))
	for _, d := range docs {
		scored = append(scored, scoredDoc{
			doc:    d,
			score:  f.laneWeight(d.OriginLane) * d.RelevanceScore,
			urlKey: normalizeURL(d.SourceID),
			tokens: titleTokens(d.Title),
		})
	}

	// Deterministic order: score descending, then source ID, then lane.
	// Greedy dedup below then keeps the best representative of each
	// duplicate cluster independent of arrival order.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].doc.SourceID != scored[j].doc.SourceID {
			return scored[i].doc.SourceID < scored[j].doc.SourceID
		}
		return scored[i].doc.OriginLane < scored[j].doc.OriginLane
	})

	kept := make([]scoredDoc, 0, len(scored))
	for _, cand := range scored {
		dup := false
		for _, k := range kept {
			if cand.urlKey != "" && cand.urlKey == k.urlKey {
				dup = true
				break
			}
			if JaccardSimilarity(cand.tokens, k.tokens) >= f.dedupThreshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, cand)
		}
	}

	fused := &model.FusedEvidence{
		Documents:   make([]model.Document, len(kept)),
		FusedScores: make([]float64, len(kept)),
	}
	for i, k := range kept {
		fused.Documents[i] = k.doc
		fused.FusedScores[i] = k.score
	}
	return fused
}

// normalizeURL reduces a URL to its identity form: lowercase host without
// www, plus the path with any trailing slash removed. Query strings and
// fragments are ignored. Non-URL source IDs are returned lowercased.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}

// titleNormalizer strips diacritics and applies NFKC so near-identical
// titles tokenize identically.
var titleNormalizer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFKC,
)

// titleTokens lowercases, normalizes, and tokenizes a title into a set.
func titleTokens(title string) map[string]struct{} {
	normalized, _, err := transform.String(titleNormalizer, title)
	if err != nil {
		normalized = title
	}
	normalized = strings.ToLower(normalized)

	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// JaccardSimilarity computes intersection-over-union for two token sets. Empty
// sets are never similar: untitled documents never dedup by title.
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
