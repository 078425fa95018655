// Package answer runs the full query pipeline: cache, retrieval, model
// selection and invocation, verification, and citation.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/answers/internal/cache"
	"github.com/sells-group/answers/internal/cite"
	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/cost"
	"github.com/sells-group/answers/internal/llm"
	"github.com/sells-group/answers/internal/model"
	"github.com/sells-group/answers/internal/retrieval"
	"github.com/sells-group/answers/internal/selector"
	"github.com/sells-group/answers/internal/verify"
)

// Options tweaks a single Answer call.
type Options struct {
	// BypassCache skips both cache reads; results are still written back.
	BypassCache bool
	// Budget overrides the configured retrieval budget when positive.
	Budget time.Duration
}

// Pipeline wires the pipeline stages together. Safe for concurrent use.
type Pipeline struct {
	cfg       *config.Config
	retriever *retrieval.Orchestrator
	selector  *selector.Selector
	invoker   *llm.Invoker
	verifier  *verify.Verifier
	store     cache.Cache

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewPipeline assembles a Pipeline from its stages. The cache may be nil,
// which disables caching entirely.
func NewPipeline(
	cfg *config.Config,
	retriever *retrieval.Orchestrator,
	sel *selector.Selector,
	invoker *llm.Invoker,
	verifier *verify.Verifier,
	store cache.Cache,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		retriever: retriever,
		selector:  sel,
		invoker:   invoker,
		verifier:  verifier,
		store:     store,
		nowFunc:   time.Now,
	}
}

// Answer resolves a query end to end and returns the final cited answer.
func (p *Pipeline) Answer(ctx context.Context, queryText, userContext string, opts Options) (*model.FinalAnswer, error) {
	return p.answer(ctx, queryText, userContext, opts, nil)
}

// AnswerStream is Answer with draft tokens delivered through onText as the
// model produces them. Verification and citation run after the draft
// completes, so the returned answer is the authoritative annotated text.
func (p *Pipeline) AnswerStream(ctx context.Context, queryText, userContext string, opts Options, onText func(string)) (*model.FinalAnswer, error) {
	return p.answer(ctx, queryText, userContext, opts, onText)
}

func (p *Pipeline) answer(ctx context.Context, queryText, userContext string, opts Options, onText func(string)) (*model.FinalAnswer, error) {
	if queryText == "" {
		return nil, eris.New("answer: empty query")
	}

	start := p.nowFunc()
	q := model.Query{
		Text:        queryText,
		UserContext: userContext,
		TraceID:     uuid.NewString(),
		IssuedAt:    start,
	}
	log := zap.L().With(zap.String("trace_id", q.TraceID))

	answerKey := cache.Fingerprint("answer", queryText, userContext)
	if !opts.BypassCache {
		if cached := p.cachedAnswer(ctx, answerKey, log); cached != nil {
			cached.CacheStatus = model.CacheHit
			cached.TraceID = q.TraceID
			cached.Elapsed = p.nowFunc().Sub(start)
			log.Info("answer served from cache", zap.Duration("elapsed", cached.Elapsed))
			return cached, nil
		}
	}

	evidence, lanes, err := p.retrieve(ctx, q, opts, log)
	if err != nil {
		return nil, err
	}
	for _, lane := range lanes {
		log.Debug("lane outcome",
			zap.String("lane", string(lane.Kind)),
			zap.String("status", string(lane.Status)),
			zap.Int("documents", len(lane.Documents)),
		)
	}

	draft, modelUsed, err := p.generate(ctx, q, evidence, onText, log)
	if err != nil {
		return nil, err
	}

	report, err := p.verifier.Verify(ctx, draft, evidence.Documents)
	if err != nil {
		return nil, eris.Wrap(err, "answer: verify draft")
	}

	annotated, citations := cite.Annotate(report.Sentences, p.verifier.SupportThreshold())

	final := &model.FinalAnswer{
		AnnotatedText:   annotated,
		Citations:       citations,
		ConfidenceScore: report.Overall,
		ModelUsed:       modelUsed,
		CacheStatus:     model.CacheMiss,
		TraceID:         q.TraceID,
		Elapsed:         p.nowFunc().Sub(start),
	}

	p.storeAnswer(ctx, answerKey, final, log)

	log.Info("answer produced",
		zap.String("model", modelUsed),
		zap.Float64("confidence", final.ConfidenceScore),
		zap.Int("citations", len(citations)),
		zap.Duration("elapsed", final.Elapsed),
	)
	return final, nil
}

// cachedRetrieval is the cache payload for the retrieval stage.
type cachedRetrieval struct {
	Evidence *model.FusedEvidence `json:"evidence"`
	Lanes    []model.LaneResult   `json:"lanes"`
}

func (p *Pipeline) retrieve(ctx context.Context, q model.Query, opts Options, log *zap.Logger) (*model.FusedEvidence, []model.LaneResult, error) {
	key := cache.Fingerprint("retrieval", q.Text)

	if p.store != nil && !opts.BypassCache {
		if payload, err := p.store.Get(ctx, key); err == nil {
			var cached cachedRetrieval
			if err := json.Unmarshal(payload, &cached); err == nil && cached.Evidence != nil {
				log.Debug("retrieval served from cache")
				return cached.Evidence, cached.Lanes, nil
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			log.Warn("retrieval cache read failed, treating as miss", zap.Error(err))
		}
	}

	budget := opts.Budget
	if budget <= 0 {
		budget = p.cfg.Lanes.TotalBudget()
	}
	evidence, lanes, err := p.retriever.Retrieve(ctx, q, budget)
	if err != nil {
		return nil, nil, eris.Wrap(err, "answer: retrieve evidence")
	}

	if p.store != nil {
		if payload, err := json.Marshal(cachedRetrieval{Evidence: evidence, Lanes: lanes}); err == nil {
			if err := p.store.Set(ctx, key, payload, p.cfg.Cache.RetrievalTTL()); err != nil {
				log.Warn("retrieval cache write failed", zap.Error(err))
			}
		}
	}
	return evidence, lanes, nil
}

// generate selects models and invokes them with fallback. When every
// candidate fails but evidence exists, it degrades to an evidence-only
// draft instead of failing the query.
func (p *Pipeline) generate(ctx context.Context, q model.Query, evidence *model.FusedEvidence, onText func(string), log *zap.Logger) (draft, modelUsed string, err error) {
	prompt := buildPrompt(q, evidence)

	sel, err := p.selector.Select(q.Text, cost.EstimateTokens(prompt))
	if err != nil {
		if len(evidence.Documents) == 0 {
			return "", "", eris.Wrap(err, "answer: no evidence and no model")
		}
		log.Warn("model selection failed, degrading to evidence-only answer", zap.Error(err))
		return degradedDraft(evidence), "none", nil
	}

	req := llm.Request{
		System:    systemPrompt,
		Prompt:    prompt,
		MaxTokens: p.cfg.Models.MaxOutputTokens,
	}

	var gen *model.GenerationResult
	if onText != nil {
		gen, err = p.invoker.GenerateStream(ctx, sel, req, onText)
	} else {
		gen, err = p.invoker.Generate(ctx, sel, req)
	}
	if err != nil {
		var exhausted *llm.ExhaustedError
		if errors.As(err, &exhausted) && len(evidence.Documents) > 0 {
			log.Warn("all model candidates failed, degrading to evidence-only answer",
				zap.Int("attempts", len(exhausted.Attempts)))
			return degradedDraft(evidence), "none", nil
		}
		return "", "", eris.Wrap(err, "answer: generate draft")
	}

	log.Info("draft generated",
		zap.String("provider", gen.Provider),
		zap.String("model", gen.Model),
		zap.Int("output_tokens", gen.OutputTokens),
		zap.Float64("cost_usd", gen.EstimatedCost),
		zap.Duration("latency", gen.Latency),
	)
	return gen.Content, gen.Provider + "/" + gen.Model, nil
}

func (p *Pipeline) cachedAnswer(ctx context.Context, key string, log *zap.Logger) *model.FinalAnswer {
	if p.store == nil {
		return nil
	}
	payload, err := p.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.Warn("answer cache read failed, treating as miss", zap.Error(err))
		}
		return nil
	}
	var final model.FinalAnswer
	if err := json.Unmarshal(payload, &final); err != nil {
		log.Warn("answer cache payload corrupt, treating as miss", zap.Error(err))
		return nil
	}
	return &final
}

func (p *Pipeline) storeAnswer(ctx context.Context, key string, final *model.FinalAnswer, log *zap.Logger) {
	if p.store == nil {
		return
	}
	payload, err := json.Marshal(final)
	if err != nil {
		log.Warn("answer cache marshal failed", zap.Error(err))
		return
	}
	if err := p.store.Set(ctx, key, payload, p.cfg.Cache.AnswerTTL()); err != nil {
		log.Warn("answer cache write failed", zap.Error(err))
	}
}
