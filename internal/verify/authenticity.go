package verify

import (
	"net/url"
	"strings"

	"github.com/sells-group/answers/internal/model"
)

// authenticityScorer rates how trustworthy a source document looks based on
// its domain and attribution metadata.
type authenticityScorer struct {
	exact    map[string]struct{}
	suffixes []string // from wildcard patterns like "*.gov"
}

func newAuthenticityScorer(patterns []string) *authenticityScorer {
	s := &authenticityScorer{exact: make(map[string]struct{})}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, "*."); ok {
			s.suffixes = append(s.suffixes, "."+rest)
			continue
		}
		s.exact[p] = struct{}{}
	}
	return s
}

// score rates a document in [0,1]. Every source starts at 0.4; a trusted
// domain adds 0.3, named attribution 0.15, and scholarly reference markers
// in the content another 0.15.
func (s *authenticityScorer) score(doc model.Document) float64 {
	score := 0.4
	if s.trustedDomain(doc.SourceID) {
		score += 0.3
	}
	if strings.TrimSpace(doc.Author) != "" {
		score += 0.15
	}
	if hasReferenceMarkers(doc.Content) {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}

// referenceMarkers are lowercase substrings that signal cited or
// peer-reviewed material.
var referenceMarkers = []string{"doi:", "doi.org/", "et al.", "references:", "peer-reviewed", "peer reviewed"}

func hasReferenceMarkers(content string) bool {
	lower := strings.ToLower(content)
	for _, m := range referenceMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func (s *authenticityScorer) trustedDomain(sourceID string) bool {
	u, err := url.Parse(sourceID)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))

	if _, ok := s.exact[host]; ok {
		return true
	}
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".") {
			return true
		}
	}
	// Exact entries also match subdomains: "wikipedia.org" trusts
	// "en.wikipedia.org".
	for domain := range s.exact {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
