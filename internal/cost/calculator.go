// Package cost computes estimated spend for model invocations.
package cost

import (
	"github.com/sells-group/answers/internal/model"
)

// Calculator estimates USD cost for generation requests against the
// candidates in the model catalog.
type Calculator struct {
	rates map[string]rate // keyed by provider/model
}

type rate struct {
	per1kIn  float64
	per1kOut float64
}

// NewCalculator builds a Calculator from catalog candidates.
func NewCalculator(candidates []model.ModelCandidate) *Calculator {
	rates := make(map[string]rate, len(candidates))
	for _, c := range candidates {
		rates[key(c.Provider, c.Model)] = rate{per1kIn: c.CostPer1KIn, per1kOut: c.CostPer1KOut}
	}
	return &Calculator{rates: rates}
}

func key(provider, mdl string) string {
	return provider + "/" + mdl
}

// Generation computes the cost of a completed invocation from actual token
// counts. Returns 0 for models not in the catalog.
func (c *Calculator) Generation(provider, mdl string, inputTokens, outputTokens int) float64 {
	r, ok := c.rates[key(provider, mdl)]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1000)*r.per1kIn + (float64(outputTokens)/1000)*r.per1kOut
}

// Estimate projects the cost of a prospective invocation, assuming the
// output consumes maxOutputTokens in the worst case.
func (c *Calculator) Estimate(candidate model.ModelCandidate, estimatedInputTokens, maxOutputTokens int) float64 {
	return (float64(estimatedInputTokens)/1000)*candidate.CostPer1KIn +
		(float64(maxOutputTokens)/1000)*candidate.CostPer1KOut
}

// EstimateTokens approximates the token count of a prompt. Four characters
// per token is close enough for budget math across the providers we use.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}
