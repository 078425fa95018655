package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/answers/internal/config"
)

func writeTestCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := []byte(`models:
  - provider: anthropic
    model: claude-3-5-haiku-latest
    tier: fast
    cost_per_1k_in: 0.0008
    cost_per_1k_out: 0.004
    max_tokens: 8192
    capability_tags: [factual]
    enabled: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testWiringConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Lanes: config.LanesConfig{
			TotalBudgetMS:     5000,
			TopK:              8,
			WebBudgetShare:    0.5,
			VectorBudgetShare: 0.3,
			GraphBudgetShare:  0.3,
			WebWeight:         0.35,
			VectorWeight:      0.4,
			GraphWeight:       0.25,
			DedupThreshold:    0.8,
		},
		Models: config.ModelsConfig{
			CatalogPath:      writeTestCatalog(t),
			AttemptTimeoutMS: 5000,
			MaxRetries:       1,
			MaxOutputTokens:  1024,
		},
		Cache: config.CacheConfig{
			Driver:           "sqlite",
			DSN:              filepath.Join(t.TempDir(), "cache.db"),
			RetrievalTTLMins: 30,
			AnswerTTLMins:    120,
		},
		Verify: config.VerifyConfig{
			SupportThreshold: 0.6,
			FreshnessDays:    365,
		},
	}
}

func TestInitPipeline_VectorLaneWithoutWebLane(t *testing.T) {
	cfg = testWiringConfig(t)
	cfg.Lanes.WebEnabled = false
	cfg.Lanes.VectorEnabled = true
	cfg.Jina.Key = "test-key"
	cfg.Vector.Addr = "localhost:6379"
	cfg.Vector.IndexName = "passages"

	env, err := initPipeline(context.Background())
	require.NoError(t, err, "vector lane alone must be enough to start the pipeline")
	defer env.Close()

	require.NotNil(t, env.Pipeline)
	require.NotNil(t, env.vector)
}

func TestInitPipeline_WebAndVectorLanes(t *testing.T) {
	cfg = testWiringConfig(t)
	cfg.Lanes.WebEnabled = true
	cfg.Lanes.VectorEnabled = true
	cfg.Jina.Key = "test-key"
	cfg.Vector.Addr = "localhost:6379"
	cfg.Vector.IndexName = "passages"

	env, err := initPipeline(context.Background())
	require.NoError(t, err)
	defer env.Close()
	require.NotNil(t, env.vector)
}

func TestInitPipeline_NoLaneConfigured(t *testing.T) {
	cfg = testWiringConfig(t)
	cfg.Lanes.WebEnabled = true
	cfg.Lanes.VectorEnabled = true
	// No Jina key and no graph endpoint leaves zero usable lanes.

	_, err := initPipeline(context.Background())
	require.Error(t, err)
}
