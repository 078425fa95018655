// Package llm invokes language models across providers with retry,
// per-provider circuit breaking, and ordered fallback.
package llm

import (
	"context"

	"github.com/sells-group/answers/internal/model"
)

// Request is a provider-agnostic generation request. The model name comes
// from the selected candidate, not the request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Provider adapts one upstream API to the invoker. Implementations return
// errors classified via the resilience package so the invoker knows whether
// to retry the same provider or fall through to the next candidate.
type Provider interface {
	Name() string
	Complete(ctx context.Context, mdl string, req Request) (*model.GenerationResult, error)
	// Stream is like Complete but delivers text deltas through onText as
	// they arrive. Providers without streaming support deliver the full
	// text in a single callback.
	Stream(ctx context.Context, mdl string, req Request, onText func(string)) (*model.GenerationResult, error)
}
