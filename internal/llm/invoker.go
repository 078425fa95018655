package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/cost"
	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/internal/resilience"
)

// ProviderMetrics is the per-provider slice of the invoker metrics.
// AvgLatencyMS covers successful calls only.
type ProviderMetrics struct {
	Requests     int64   `json:"requests"`
	Errors       int64   `json:"errors"`
	CostUSD      float64 `json:"cost_usd"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`

	totalLatency time.Duration
	successes    int64
}

// Metrics is an aggregate snapshot of invoker activity.
type Metrics struct {
	Requests     int64                      `json:"requests"`
	Failures     int64                      `json:"failures"`
	Fallbacks    int64                      `json:"fallbacks"`
	TotalCostUSD float64                    `json:"total_cost_usd"`
	AvgLatencyMS float64                    `json:"avg_latency_ms"`
	ByProvider   map[string]ProviderMetrics `json:"by_provider"`

	totalLatency time.Duration
	successes    int64
}

// Invoker walks an ordered candidate list, calling each provider with retry
// and circuit breaking until one succeeds.
type Invoker struct {
	providers      map[string]Provider
	breakers       *resilience.ProviderBreakers
	limiters       map[string]*rate.Limiter
	retry          resilience.RetryConfig
	calc           *cost.Calculator
	attemptTimeout time.Duration

	mu      sync.Mutex
	metrics Metrics
}

// NewInvoker builds an Invoker over the given providers. Providers missing
// from the list cause their candidates to be skipped at generation time.
func NewInvoker(cfg config.ModelsConfig, calc *cost.Calculator, providers ...Provider) *Invoker {
	pm := make(map[string]Provider, len(providers))
	limiters := make(map[string]*rate.Limiter, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		pm[p.Name()] = p
		limiters[p.Name()] = rate.NewLimiter(5, 10)
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	timeout := cfg.AttemptTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Invoker{
		providers:      pm,
		breakers:       resilience.NewProviderBreakers(resilience.DefaultCircuitConfig()),
		limiters:       limiters,
		retry:          retry,
		calc:           calc,
		attemptTimeout: timeout,
		metrics:        Metrics{ByProvider: make(map[string]ProviderMetrics)},
	}
}

// Generate tries each candidate in order until one produces a completion.
// Transient failures retry the same provider up to the retry budget;
// permanent failures and open circuits fall through to the next candidate.
// When every candidate fails the returned error is an *ExhaustedError.
func (inv *Invoker) Generate(ctx context.Context, sel *model.ModelSelection, req Request) (*model.GenerationResult, error) {
	return inv.generate(ctx, sel, func(ctx context.Context, p Provider, mdl string) (*model.GenerationResult, error) {
		return p.Complete(ctx, mdl, req)
	})
}

// GenerateStream is Generate with text deltas delivered through onText.
// Deltas from a candidate that ultimately fails may already have been
// delivered; callers that cannot tolerate that should use Generate.
func (inv *Invoker) GenerateStream(ctx context.Context, sel *model.ModelSelection, req Request, onText func(string)) (*model.GenerationResult, error) {
	return inv.generate(ctx, sel, func(ctx context.Context, p Provider, mdl string) (*model.GenerationResult, error) {
		return p.Stream(ctx, mdl, req, onText)
	})
}

func (inv *Invoker) generate(ctx context.Context, sel *model.ModelSelection, call func(context.Context, Provider, string) (*model.GenerationResult, error)) (*model.GenerationResult, error) {
	if sel == nil || len(sel.Candidates) == 0 {
		return nil, eris.New("llm: empty model selection")
	}

	var attempts []Attempt
	for i, cand := range sel.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		provider, ok := inv.providers[cand.Provider]
		if !ok {
			attempts = append(attempts, Attempt{Provider: cand.Provider, Model: cand.Model, Err: "provider not configured"})
			continue
		}

		start := time.Now()
		res, err := inv.invokeOne(ctx, provider, cand.Model, call)
		if err != nil {
			inv.recordFailure(cand.Provider)
			attempts = append(attempts, Attempt{Provider: cand.Provider, Model: cand.Model, Err: err.Error()})
			zap.L().Warn("candidate failed, falling through",
				zap.String("provider", cand.Provider),
				zap.String("model", cand.Model),
				zap.Bool("permanent", resilience.IsPermanent(err)),
				zap.Error(err),
			)
			continue
		}

		res.Latency = time.Since(start)
		res.EstimatedCost = inv.calc.Generation(cand.Provider, cand.Model, res.InputTokens, res.OutputTokens)
		inv.recordSuccess(cand.Provider, res.EstimatedCost, res.Latency, i > 0)
		return res, nil
	}

	inv.recordExhausted()
	return nil, &ExhaustedError{Attempts: attempts}
}

// invokeOne runs a single candidate through its rate limiter, circuit
// breaker, and retry loop, with the attempt timeout around each try.
func (inv *Invoker) invokeOne(ctx context.Context, p Provider, mdl string, call func(context.Context, Provider, string) (*model.GenerationResult, error)) (*model.GenerationResult, error) {
	cb := inv.breakers.Get(p.Name())

	retry := inv.retry
	retry.OnRetry = resilience.RetryLogger(p.Name(), "generate")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*model.GenerationResult, error) {
		if limiter, ok := inv.limiters[p.Name()]; ok {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*model.GenerationResult, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, inv.attemptTimeout)
			defer cancel()
			return call(attemptCtx, p, mdl)
		})
	})
}

// Metrics returns a copy of the aggregate counters.
func (inv *Invoker) Metrics() Metrics {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	snap := inv.metrics
	if snap.successes > 0 {
		snap.AvgLatencyMS = float64(snap.totalLatency) / float64(time.Millisecond) / float64(snap.successes)
	}
	snap.ByProvider = make(map[string]ProviderMetrics, len(inv.metrics.ByProvider))
	for name, pm := range inv.metrics.ByProvider {
		if pm.successes > 0 {
			pm.AvgLatencyMS = float64(pm.totalLatency) / float64(time.Millisecond) / float64(pm.successes)
		}
		snap.ByProvider[name] = pm
	}
	return snap
}

// BreakerStates exposes the circuit state per provider.
func (inv *Invoker) BreakerStates() map[string]resilience.CircuitState {
	return inv.breakers.States()
}

func (inv *Invoker) recordSuccess(provider string, costUSD float64, latency time.Duration, fellBack bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.metrics.Requests++
	inv.metrics.TotalCostUSD += costUSD
	inv.metrics.totalLatency += latency
	inv.metrics.successes++
	if fellBack {
		inv.metrics.Fallbacks++
	}
	pm := inv.metrics.ByProvider[provider]
	pm.Requests++
	pm.CostUSD += costUSD
	pm.totalLatency += latency
	pm.successes++
	inv.metrics.ByProvider[provider] = pm
}

func (inv *Invoker) recordFailure(provider string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	pm := inv.metrics.ByProvider[provider]
	pm.Requests++
	pm.Errors++
	inv.metrics.ByProvider[provider] = pm
}

func (inv *Invoker) recordExhausted() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.metrics.Requests++
	inv.metrics.Failures++
}
