package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/answers/internal/answer"
	"github.com/sells-group/answers/internal/cache"
	"github.com/sells-group/answers/internal/cost"
	"github.com/sells-group/answers/internal/lane"
	"github.com/sells-group/answers/internal/llm"
	"github.com/sells-group/answers/internal/retrieval"
	"github.com/sells-group/answers/internal/selector"
	"github.com/sells-group/answers/internal/verify"
	"github.com/sells-group/answers/pkg/anthropic"
	"github.com/sells-group/answers/pkg/graphstore"
	"github.com/sells-group/answers/pkg/jina"
	"github.com/sells-group/answers/pkg/perplexity"
	"github.com/sells-group/answers/pkg/vectorstore"
)

// pipelineEnv bundles the assembled pipeline with everything that needs
// closing on shutdown.
type pipelineEnv struct {
	Pipeline *answer.Pipeline
	Invoker  *llm.Invoker

	store  cache.Cache
	vector *vectorstore.Store
}

func (e *pipelineEnv) Close() {
	if e.vector != nil {
		if err := e.vector.Close(); err != nil {
			zap.L().Warn("close vector store", zap.Error(err))
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			zap.L().Warn("close cache", zap.Error(err))
		}
	}
}

// initPipeline wires lanes, model providers, verifier, and cache from the
// loaded configuration. Lanes and providers missing credentials are left
// unregistered rather than failing startup.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	env := &pipelineEnv{}

	// The Jina client serves both web search and the vector lane's
	// embedder, so it is built whenever a key is present.
	var search jina.Client
	if cfg.Jina.Key != "" {
		search = jina.NewClient(cfg.Jina.Key,
			jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
			jina.WithEmbedBaseURL(cfg.Jina.EmbedBaseURL),
			jina.WithEmbeddingModel(cfg.Jina.EmbeddingModel),
		)
	}

	var lanes []lane.Lane
	if cfg.Lanes.WebEnabled && search != nil {
		lanes = append(lanes, lane.NewWebLane(search))
	}
	if cfg.Lanes.VectorEnabled && cfg.Vector.Addr != "" && search != nil {
		env.vector = vectorstore.New(vectorstore.Options{
			Addr:     cfg.Vector.Addr,
			Password: cfg.Vector.Password,
			DB:       cfg.Vector.DB,
			Index:    cfg.Vector.IndexName,
		})
		lanes = append(lanes, lane.NewVectorLane(lane.NewJinaEmbedder(search), env.vector))
	}
	if cfg.Lanes.GraphEnabled && cfg.Graph.BaseURL != "" {
		graph := graphstore.NewClient(cfg.Graph.BaseURL, cfg.Graph.Key)
		lanes = append(lanes, lane.NewGraphLane(graph, cfg.Graph.Depth))
	}
	if len(lanes) == 0 {
		return nil, eris.New("no retrieval lane is configured; set at least one API key")
	}

	catalog, err := selector.LoadCatalog(cfg.Models.CatalogPath)
	if err != nil {
		return nil, err
	}
	calc := cost.NewCalculator(catalog.Models)

	var providers []llm.Provider
	if cfg.Anthropic.Key != "" {
		providers = append(providers, llm.NewAnthropicProvider(anthropic.NewClient(cfg.Anthropic.Key)))
	}
	if cfg.Perplexity.Key != "" {
		providers = append(providers, llm.NewPerplexityProvider(perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)))
	}
	if cfg.Gemini.Key != "" {
		gemini, err := llm.NewGeminiProvider(ctx, cfg.Gemini.Key)
		if err != nil {
			return nil, err
		}
		providers = append(providers, gemini)
	}
	if len(providers) == 0 {
		zap.L().Warn("no model provider configured; answers will degrade to evidence-only")
	}

	env.store, err = cache.Open(ctx, cfg.Cache)
	if err != nil {
		// A dead cache should not block answering.
		zap.L().Warn("cache unavailable, continuing without one", zap.Error(err))
		env.store = nil
	}

	env.Invoker = llm.NewInvoker(cfg.Models, calc, providers...)
	env.Pipeline = answer.NewPipeline(
		cfg,
		retrieval.New(cfg.Lanes, lanes...),
		selector.NewSelector(catalog, calc, cfg.Models.MaxOutputTokens),
		env.Invoker,
		verify.NewVerifier(cfg.Verify),
		env.store,
	)
	return env, nil
}
