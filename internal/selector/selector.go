// Package selector classifies queries and picks an ordered list of model
// candidates balancing capability against cost.
package selector

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/answers/internal/cost"
	"github.com/sells-group/answers/internal/model"
)

// Selector ranks catalog models for a query. Selection is deterministic:
// the same query and catalog always produce the same ordered candidate list.
type Selector struct {
	catalog         *Catalog
	calc            *cost.Calculator
	maxOutputTokens int
}

// NewSelector creates a Selector over a loaded catalog.
func NewSelector(catalog *Catalog, calc *cost.Calculator, maxOutputTokens int) *Selector {
	if maxOutputTokens <= 0 {
		maxOutputTokens = 1024
	}
	return &Selector{catalog: catalog, calc: calc, maxOutputTokens: maxOutputTokens}
}

// tierFor maps query complexity to the preferred model tier.
func tierFor(c Complexity) model.ModelTier {
	switch c {
	case ComplexityComplex:
		return model.TierPowerful
	case ComplexityModerate:
		return model.TierBalanced
	default:
		return model.TierFast
	}
}

// tierRank orders tiers by capability for distance scoring.
func tierRank(t model.ModelTier) int {
	switch t {
	case model.TierFast:
		return 0
	case model.TierBalanced:
		return 1
	case model.TierPowerful:
		return 2
	default:
		return -1
	}
}

type rankedCandidate struct {
	candidate model.ModelCandidate
	score     float64
	estCost   float64
}

// Select classifies the query, filters candidates that cannot fit the
// prompt, and returns them ranked best first. Cheaper models win ties.
func (s *Selector) Select(queryText string, promptTokens int) (*model.ModelSelection, error) {
	complexity, category := Classify(queryText)
	wantTier := tierFor(complexity)
	// Code questions punish weak models disproportionately; never aim
	// below the balanced tier for them.
	if category == CategoryCode && wantTier == model.TierFast {
		wantTier = model.TierBalanced
	}

	if promptTokens <= 0 {
		promptTokens = cost.EstimateTokens(queryText)
	}
	required := promptTokens + s.maxOutputTokens

	ranked := make([]rankedCandidate, 0, len(s.catalog.Models))
	for _, cand := range s.catalog.Enabled() {
		if cand.MaxTokens > 0 && cand.MaxTokens < required {
			continue
		}
		est := s.calc.Estimate(cand, promptTokens, s.maxOutputTokens)
		ranked = append(ranked, rankedCandidate{
			candidate: cand,
			score:     s.score(cand, wantTier, category, est),
			estCost:   est,
		})
	}
	if len(ranked) == 0 {
		return nil, eris.Errorf("selector: no model fits %d tokens", required)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].estCost != ranked[j].estCost {
			return ranked[i].estCost < ranked[j].estCost
		}
		if ranked[i].candidate.Provider != ranked[j].candidate.Provider {
			return ranked[i].candidate.Provider < ranked[j].candidate.Provider
		}
		return ranked[i].candidate.Model < ranked[j].candidate.Model
	})

	sel := &model.ModelSelection{
		Candidates:    make([]model.ModelCandidate, len(ranked)),
		EstimatedCost: ranked[0].estCost,
		Confidence:    confidence(ranked),
		Complexity:    string(complexity),
		Category:      string(category),
	}
	for i, r := range ranked {
		sel.Candidates[i] = r.candidate
	}

	zap.L().Debug("model selected",
		zap.String("complexity", sel.Complexity),
		zap.String("category", sel.Category),
		zap.String("model", sel.Candidates[0].Model),
		zap.Float64("estimated_cost_usd", sel.EstimatedCost),
	)

	return sel, nil
}

// score combines tier fit, capability-tag fit, and inverse cost. Tier
// distance dominates, a matching capability tag beats any price gap, and
// the cost bonus separates otherwise equal candidates.
func (s *Selector) score(cand model.ModelCandidate, wantTier model.ModelTier, category Category, estCost float64) float64 {
	dist := tierRank(cand.Tier) - tierRank(wantTier)
	if dist < 0 {
		dist = -dist
	}
	score := 1.0 - 0.3*float64(dist)

	for _, tag := range cand.CapabilityTags {
		if tag == string(category) {
			score += 0.1
			break
		}
	}

	// Bounded below the tag weight so cheap never outranks capable.
	score += 0.05 / (1.0 + 1000*estCost)
	return score
}

// confidence reflects how decisively the top candidate beat the runner-up.
func confidence(ranked []rankedCandidate) float64 {
	if len(ranked) == 1 {
		return 1.0
	}
	gap := ranked[0].score - ranked[1].score
	c := 0.6 + gap
	if c > 1.0 {
		c = 1.0
	}
	return c
}
