// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Lanes      LanesConfig      `yaml:"lanes" mapstructure:"lanes"`
	Models     ModelsConfig     `yaml:"models" mapstructure:"models"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Verify     VerifyConfig     `yaml:"verify" mapstructure:"verify"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Vector     VectorConfig     `yaml:"vector" mapstructure:"vector"`
	Graph      GraphConfig      `yaml:"graph" mapstructure:"graph"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// LanesConfig configures the retrieval orchestrator.
type LanesConfig struct {
	WebEnabled    bool `yaml:"web_enabled" mapstructure:"web_enabled"`
	VectorEnabled bool `yaml:"vector_enabled" mapstructure:"vector_enabled"`
	GraphEnabled  bool `yaml:"graph_enabled" mapstructure:"graph_enabled"`

	TotalBudgetMS int `yaml:"total_budget_ms" mapstructure:"total_budget_ms"`
	TopK          int `yaml:"top_k" mapstructure:"top_k"`

	// Per-lane share of the total budget. Shares are independent caps and
	// need not sum to 1.
	WebBudgetShare    float64 `yaml:"web_budget_share" mapstructure:"web_budget_share"`
	VectorBudgetShare float64 `yaml:"vector_budget_share" mapstructure:"vector_budget_share"`
	GraphBudgetShare  float64 `yaml:"graph_budget_share" mapstructure:"graph_budget_share"`

	// Fusion weights applied to per-lane relevance scores.
	WebWeight    float64 `yaml:"web_weight" mapstructure:"web_weight"`
	VectorWeight float64 `yaml:"vector_weight" mapstructure:"vector_weight"`
	GraphWeight  float64 `yaml:"graph_weight" mapstructure:"graph_weight"`

	// DedupThreshold is the normalized-title Jaccard similarity above which
	// two documents are considered duplicates.
	DedupThreshold float64 `yaml:"dedup_threshold" mapstructure:"dedup_threshold"`
}

// TotalBudget returns the retrieval budget as a duration.
func (l LanesConfig) TotalBudget() time.Duration {
	return time.Duration(l.TotalBudgetMS) * time.Millisecond
}

// ModelsConfig configures model selection and invocation.
type ModelsConfig struct {
	CatalogPath      string `yaml:"catalog_path" mapstructure:"catalog_path"`
	AttemptTimeoutMS int    `yaml:"attempt_timeout_ms" mapstructure:"attempt_timeout_ms"`
	MaxRetries       int    `yaml:"max_retries" mapstructure:"max_retries"`
	MaxOutputTokens  int    `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// AttemptTimeout returns the per-attempt timeout as a duration.
func (m ModelsConfig) AttemptTimeout() time.Duration {
	return time.Duration(m.AttemptTimeoutMS) * time.Millisecond
}

// CacheConfig configures the response cache backend.
type CacheConfig struct {
	Driver           string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DSN              string `yaml:"dsn" mapstructure:"dsn"`
	RetrievalTTLMins int    `yaml:"retrieval_ttl_mins" mapstructure:"retrieval_ttl_mins"`
	AnswerTTLMins    int    `yaml:"answer_ttl_mins" mapstructure:"answer_ttl_mins"`
}

// RetrievalTTL returns the TTL for cached retrieval results.
func (c CacheConfig) RetrievalTTL() time.Duration {
	return time.Duration(c.RetrievalTTLMins) * time.Minute
}

// AnswerTTL returns the TTL for cached final answers.
func (c CacheConfig) AnswerTTL() time.Duration {
	return time.Duration(c.AnswerTTLMins) * time.Minute
}

// VerifyConfig configures fact verification.
type VerifyConfig struct {
	SupportThreshold  float64  `yaml:"support_threshold" mapstructure:"support_threshold"`
	FreshnessDays     int      `yaml:"freshness_days" mapstructure:"freshness_days"`
	TrustedDomains    []string `yaml:"trusted_domains" mapstructure:"trusted_domains"`
	ParallelSentences bool     `yaml:"parallel_sentences" mapstructure:"parallel_sentences"`
}

// JinaConfig holds Jina search/embedding settings.
type JinaConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	SearchBaseURL  string `yaml:"search_base_url" mapstructure:"search_base_url"`
	EmbedBaseURL   string `yaml:"embed_base_url" mapstructure:"embed_base_url"`
	EmbeddingModel string `yaml:"embedding_model" mapstructure:"embedding_model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// VectorConfig holds the Redis vector store settings.
type VectorConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	IndexName string `yaml:"index_name" mapstructure:"index_name"`
}

// GraphConfig holds the knowledge-graph endpoint settings.
type GraphConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Key     string `yaml:"key" mapstructure:"key"`
	Depth   int    `yaml:"depth" mapstructure:"depth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANSWERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("lanes.web_enabled", true)
	v.SetDefault("lanes.vector_enabled", true)
	v.SetDefault("lanes.graph_enabled", true)
	v.SetDefault("lanes.total_budget_ms", 5000)
	v.SetDefault("lanes.top_k", 8)
	v.SetDefault("lanes.web_budget_share", 0.5)
	v.SetDefault("lanes.vector_budget_share", 0.3)
	v.SetDefault("lanes.graph_budget_share", 0.3)
	v.SetDefault("lanes.web_weight", 0.35)
	v.SetDefault("lanes.vector_weight", 0.4)
	v.SetDefault("lanes.graph_weight", 0.25)
	v.SetDefault("lanes.dedup_threshold", 0.8)
	v.SetDefault("models.catalog_path", "models.yaml")
	v.SetDefault("models.attempt_timeout_ms", 30000)
	v.SetDefault("models.max_retries", 3)
	v.SetDefault("models.max_output_tokens", 1024)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "answers.db")
	v.SetDefault("cache.retrieval_ttl_mins", 30)
	v.SetDefault("cache.answer_ttl_mins", 120)
	v.SetDefault("verify.support_threshold", 0.6)
	v.SetDefault("verify.freshness_days", 365)
	v.SetDefault("verify.trusted_domains", []string{
		"*.gov", "*.edu", "*.org", "wikipedia.org", "arxiv.org", "nature.com",
	})
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.embed_base_url", "https://api.jina.ai")
	v.SetDefault("jina.embedding_model", "jina-embeddings-v3")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("vector.addr", "localhost:6379")
	v.SetDefault("vector.index_name", "passages")
	v.SetDefault("graph.depth", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
