// Package model defines the core data types shared across the answer pipeline.
package model

import "time"

// LaneKind identifies one independent retrieval strategy.
type LaneKind string

const (
	LaneWeb    LaneKind = "web"
	LaneVector LaneKind = "vector"
	LaneGraph  LaneKind = "graph"
)

// LaneStatus reports how a lane finished.
type LaneStatus string

const (
	LaneOK       LaneStatus = "ok"
	LaneTimeout  LaneStatus = "timeout"
	LaneError    LaneStatus = "error"
	LaneDisabled LaneStatus = "disabled"
)

// Query is the immutable input to a single pipeline invocation.
type Query struct {
	Text        string    `json:"text"`
	TraceID     string    `json:"trace_id"`
	UserContext string    `json:"user_context,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Document is a single piece of retrieved evidence.
type Document struct {
	Content        string    `json:"content"`
	SourceID       string    `json:"source_id"` // URL or store-native identifier
	Title          string    `json:"title"`
	RelevanceScore float64   `json:"relevance_score"` // [0,1] as reported by the lane
	RetrievedAt    time.Time `json:"retrieved_at"`
	PublishedAt    time.Time `json:"published_at,omitempty"`
	Author         string    `json:"author,omitempty"`
	OriginLane     LaneKind  `json:"origin_lane"`
}

// LaneResult is the outcome of one lane for one query.
type LaneResult struct {
	Kind      LaneKind      `json:"lane_kind"`
	Documents []Document    `json:"documents"`
	Elapsed   time.Duration `json:"elapsed"`
	Status    LaneStatus    `json:"status"`
	Err       string        `json:"error,omitempty"`
}

// FusedEvidence is the deduplicated, ranked evidence list produced by fusion.
type FusedEvidence struct {
	Documents []Document `json:"documents"`
	// FusedScores aligns with Documents: lane-weighted relevance per document.
	FusedScores []float64 `json:"fused_scores"`
}

// CacheEntry is the stored shape of a cached computation.
type CacheEntry struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"` // JSON-serialized result
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// ModelTier is a cost/capability class of language model.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierBalanced ModelTier = "balanced"
	TierPowerful ModelTier = "powerful"
)

// ModelCandidate is a static description of one invokable model.
type ModelCandidate struct {
	Provider       string    `yaml:"provider" json:"provider"`
	Model          string    `yaml:"model" json:"model"`
	Tier           ModelTier `yaml:"tier" json:"tier"`
	CostPer1KIn    float64   `yaml:"cost_per_1k_in" json:"cost_per_1k_in"`
	CostPer1KOut   float64   `yaml:"cost_per_1k_out" json:"cost_per_1k_out"`
	MaxTokens      int       `yaml:"max_tokens" json:"max_tokens"`
	CapabilityTags []string  `yaml:"capability_tags" json:"capability_tags"`
	Enabled        bool      `yaml:"enabled" json:"enabled"`
}

// ModelSelection is the ordered preference list produced by the selector.
type ModelSelection struct {
	Candidates    []ModelCandidate `json:"candidates"` // best first
	EstimatedCost float64          `json:"estimated_cost"`
	Confidence    float64          `json:"confidence"`
	Complexity    string           `json:"complexity"`
	Category      string           `json:"category"`
}

// GenerationResult is the outcome of a successful model invocation.
type GenerationResult struct {
	Content       string        `json:"content"`
	Provider      string        `json:"provider"`
	Model         string        `json:"model"`
	InputTokens   int           `json:"input_tokens"`
	OutputTokens  int           `json:"output_tokens"`
	Latency       time.Duration `json:"latency"`
	EstimatedCost float64       `json:"estimated_cost_usd"`
}

// VerifiedSentence is one draft-answer sentence scored against the evidence.
type VerifiedSentence struct {
	Text          string     `json:"text"`
	Supporting    []Document `json:"supporting_documents,omitempty"`
	Confidence    float64    `json:"confidence"`
	IsCurrent     bool       `json:"is_current"`
	SourceAgeDays int        `json:"source_age_days,omitempty"`
	Authenticity  float64    `json:"authenticity,omitempty"`
}

// Supported reports whether the sentence cleared the given confidence threshold.
func (s *VerifiedSentence) Supported(threshold float64) bool {
	return len(s.Supporting) > 0 && s.Confidence >= threshold
}

// Citation binds a stable numeric marker to a unique source document.
type Citation struct {
	Marker   int      `json:"marker"`
	Document Document `json:"document"`
}

// CacheStatus reports whether a final answer came from the cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// FinalAnswer is the terminal artifact returned to the caller.
type FinalAnswer struct {
	AnnotatedText   string        `json:"annotated_text"`
	Citations       []Citation    `json:"citations"`
	ConfidenceScore float64       `json:"confidence_score"`
	ModelUsed       string        `json:"model_used"`
	CacheStatus     CacheStatus   `json:"cache_status"`
	TraceID         string        `json:"trace_id"`
	Elapsed         time.Duration `json:"elapsed"`
}
