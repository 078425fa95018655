package selector

import (
	"strings"
)

// Complexity buckets a query by how much reasoning it likely needs.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Category is the broad topic class of a query.
type Category string

const (
	CategoryFactual    Category = "factual"
	CategoryAnalytical Category = "analytical"
	CategoryCode       Category = "code"
)

var codeKeywords = []string{
	"code", "function", "bug", "error", "compile", "implement", "golang",
	"python", "javascript", "sql", "regex", "api", "stack trace", "debug",
}

var analyticalKeywords = []string{
	"why", "compare", "contrast", "analyze", "evaluate", "trade-off",
	"tradeoff", "pros and cons", "implication", "explain how", "difference between",
}

var reasoningKeywords = []string{
	"step by step", "prove", "derive", "reason about", "multi-step",
	"in depth", "comprehensive",
}

// Classify buckets a query into complexity and category using lightweight
// lexical heuristics. Deterministic for identical input.
func Classify(queryText string) (Complexity, Category) {
	lower := strings.ToLower(queryText)
	words := len(strings.Fields(lower))

	category := CategoryFactual
	if containsAny(lower, codeKeywords) {
		category = CategoryCode
	} else if containsAny(lower, analyticalKeywords) {
		category = CategoryAnalytical
	}

	clauses := strings.Count(lower, ",") + strings.Count(lower, ";") + strings.Count(lower, " and ")

	complexity := ComplexitySimple
	switch {
	case containsAny(lower, reasoningKeywords) || words > 60 || clauses >= 4:
		complexity = ComplexityComplex
	case words > 20 || clauses >= 2 || category == CategoryAnalytical:
		complexity = ComplexityModerate
	}

	return complexity, category
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
