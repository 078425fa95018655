// Package verify scores each sentence of a draft answer against the
// retrieved evidence: support, freshness, and source authenticity.
package verify

import (
	"context"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/model"
)

// Report is the outcome of verifying one draft answer.
type Report struct {
	Sentences []model.VerifiedSentence `json:"sentences"`
	// Overall is the fraction of sentences that cleared the support
	// threshold.
	Overall float64 `json:"overall"`
}

// Verifier checks draft sentences against evidence documents.
type Verifier struct {
	cfg  config.VerifyConfig
	auth *authenticityScorer

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewVerifier creates a Verifier from configuration.
func NewVerifier(cfg config.VerifyConfig) *Verifier {
	if cfg.SupportThreshold <= 0 {
		cfg.SupportThreshold = 0.6
	}
	if cfg.FreshnessDays <= 0 {
		cfg.FreshnessDays = 365
	}
	return &Verifier{
		cfg:     cfg,
		auth:    newAuthenticityScorer(cfg.TrustedDomains),
		nowFunc: time.Now,
	}
}

// Verify splits the draft into sentences and scores each one. Sentence order
// is preserved whether or not scoring runs in parallel.
func (v *Verifier) Verify(ctx context.Context, draft string, docs []model.Document) (*Report, error) {
	sentences := SplitSentences(draft)
	report := &Report{Sentences: make([]model.VerifiedSentence, len(sentences))}
	if len(sentences) == 0 {
		return report, nil
	}

	if v.cfg.ParallelSentences {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, s := range sentences {
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				report.Sentences[i] = v.verifySentence(s, docs)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, s := range sentences {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			report.Sentences[i] = v.verifySentence(s, docs)
		}
	}

	supported := 0
	for i := range report.Sentences {
		if report.Sentences[i].Supported(v.cfg.SupportThreshold) {
			supported++
		}
	}
	report.Overall = float64(supported) / float64(len(sentences))

	zap.L().Debug("draft verified",
		zap.Int("sentences", len(sentences)),
		zap.Int("supported", supported),
		zap.Float64("overall", report.Overall),
	)
	return report, nil
}

// SupportThreshold exposes the configured threshold for downstream filtering.
func (v *Verifier) SupportThreshold() float64 {
	return v.cfg.SupportThreshold
}

func (v *Verifier) verifySentence(sentence string, docs []model.Document) model.VerifiedSentence {
	vs := model.VerifiedSentence{Text: sentence}
	sTokens := contentTokens(sentence)
	if len(sTokens) == 0 {
		return vs
	}

	var best float64
	var bestDoc *model.Document
	for i := range docs {
		sim := supportScore(sTokens, contentTokens(docs[i].Content))
		if sim >= v.cfg.SupportThreshold {
			vs.Supporting = append(vs.Supporting, docs[i])
		}
		if sim > best {
			best = sim
			bestDoc = &docs[i]
		}
	}
	vs.Confidence = best

	if bestDoc != nil {
		vs.Authenticity = v.auth.score(*bestDoc)
		if !bestDoc.PublishedAt.IsZero() {
			age := int(v.nowFunc().Sub(bestDoc.PublishedAt).Hours() / 24)
			vs.SourceAgeDays = age
			vs.IsCurrent = age <= v.cfg.FreshnessDays
		} else {
			// Unknown publication date counts as current; retrieval
			// freshness is the only signal we have.
			vs.IsCurrent = true
		}
	}
	return vs
}

// supportScore measures how much of the sentence the document covers:
// containment of sentence tokens in the document, with a small boost when
// the shared tokens are a large part of the document too.
func supportScore(sentence, doc map[string]struct{}) float64 {
	if len(sentence) == 0 || len(doc) == 0 {
		return 0
	}
	inter := 0
	for tok := range sentence {
		if _, ok := doc[tok]; ok {
			inter++
		}
	}
	containment := float64(inter) / float64(len(sentence))
	docShare := float64(inter) / float64(len(doc))

	score := containment + 0.2*docShare
	if score > 1 {
		score = 1
	}
	return score
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "were": {}, "which": {}, "with": {},
}

// contentTokens lowercases and tokenizes text, dropping stopwords so shared
// filler words never count as support.
func contentTokens(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
