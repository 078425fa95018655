package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/model"
)

func testVerifyConfig() config.VerifyConfig {
	return config.VerifyConfig{
		SupportThreshold: 0.6,
		FreshnessDays:    365,
		TrustedDomains:   []string{"*.gov", "*.edu", "wikipedia.org"},
	}
}

func evidenceDoc(sourceID, content string, published time.Time) model.Document {
	return model.Document{
		Content:     content,
		SourceID:    sourceID,
		Title:       "Evidence",
		PublishedAt: published,
		OriginLane:  model.LaneWeb,
	}
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{
			"The sky is blue. Water boils at 100 degrees.",
			[]string{"The sky is blue.", "Water boils at 100 degrees."},
		},
		{
			"Dr. Smith joined in 2020. She leads the lab.",
			[]string{"Dr. Smith joined in 2020.", "She leads the lab."},
		},
		{
			"Inflation rose 3.5 percent. Growth slowed.",
			[]string{"Inflation rose 3.5 percent.", "Growth slowed."},
		},
		{
			"Is it true? Yes! It is.",
			[]string{"Is it true?", "Yes!", "It is."},
		},
		{
			"No trailing punctuation",
			[]string{"No trailing punctuation"},
		},
		{"", nil},
		{"   ", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitSentences(tc.in), tc.in)
	}
}

func TestVerify_SupportedSentence(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	docs := []model.Document{
		evidenceDoc("https://example.gov/water",
			"Water boils at 100 degrees Celsius at sea level pressure.",
			time.Now().AddDate(0, -1, 0)),
	}

	report, err := v.Verify(context.Background(), "Water boils at 100 degrees Celsius.", docs)
	require.NoError(t, err)
	require.Len(t, report.Sentences, 1)

	s := report.Sentences[0]
	assert.True(t, s.Supported(0.6), "confidence %.2f", s.Confidence)
	require.Len(t, s.Supporting, 1)
	assert.True(t, s.IsCurrent)
	assert.Equal(t, 1.0, report.Overall)
}

func TestVerify_UnsupportedSentence(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	docs := []model.Document{
		evidenceDoc("https://example.com/cats",
			"Cats sleep most of the day and hunt at dawn.",
			time.Now()),
	}

	report, err := v.Verify(context.Background(), "The stock market closed higher today.", docs)
	require.NoError(t, err)
	require.Len(t, report.Sentences, 1)

	assert.False(t, report.Sentences[0].Supported(0.6))
	assert.Empty(t, report.Sentences[0].Supporting)
	assert.Equal(t, 0.0, report.Overall)
}

func TestVerify_MixedDraft(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	docs := []model.Document{
		evidenceDoc("https://example.edu/go",
			"Go was released by Google in 2009 as an open source language.",
			time.Now().AddDate(0, -6, 0)),
	}

	draft := "Go was released by Google in 2009. The moon is made of cheese."
	report, err := v.Verify(context.Background(), draft, docs)
	require.NoError(t, err)
	require.Len(t, report.Sentences, 2)

	assert.True(t, report.Sentences[0].Supported(0.6))
	assert.False(t, report.Sentences[1].Supported(0.6))
	assert.InDelta(t, 0.5, report.Overall, 1e-9)
}

func TestVerify_StaleSourceNotCurrent(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	v.nowFunc = func() time.Time { return base }

	docs := []model.Document{
		evidenceDoc("https://example.com/old",
			"The framework supports plugins and custom backends today.",
			base.AddDate(-2, 0, 0)),
	}

	report, err := v.Verify(context.Background(), "The framework supports plugins and custom backends.", docs)
	require.NoError(t, err)
	require.Len(t, report.Sentences, 1)

	s := report.Sentences[0]
	assert.False(t, s.IsCurrent)
	assert.Equal(t, 730, s.SourceAgeDays)
}

func TestVerify_UnknownPublishDateCountsAsCurrent(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	docs := []model.Document{
		evidenceDoc("https://example.com/x",
			"The answer pipeline fuses evidence from several lanes.",
			time.Time{}),
	}

	report, err := v.Verify(context.Background(), "The pipeline fuses evidence from several lanes.", docs)
	require.NoError(t, err)
	assert.True(t, report.Sentences[0].IsCurrent)
	assert.Zero(t, report.Sentences[0].SourceAgeDays)
}

func TestVerify_ParallelPreservesOrder(t *testing.T) {
	cfg := testVerifyConfig()
	cfg.ParallelSentences = true
	v := NewVerifier(cfg)

	docs := []model.Document{
		evidenceDoc("https://example.com/a", "Alpha fact about retrieval quality metrics.", time.Now()),
	}
	draft := "First sentence here. Second sentence here. Third sentence here. Fourth sentence here."

	sequential := NewVerifier(testVerifyConfig())
	want, err := sequential.Verify(context.Background(), draft, docs)
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), draft, docs)
	require.NoError(t, err)
	require.Equal(t, len(want.Sentences), len(got.Sentences))
	for i := range want.Sentences {
		assert.Equal(t, want.Sentences[i].Text, got.Sentences[i].Text, "index %d", i)
	}
}

func TestVerify_EmptyDraft(t *testing.T) {
	v := NewVerifier(testVerifyConfig())
	report, err := v.Verify(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, report.Sentences)
	assert.Zero(t, report.Overall)
}

func TestAuthenticity_TrustedDomainAndAttribution(t *testing.T) {
	s := newAuthenticityScorer([]string{"*.gov", "wikipedia.org"})

	plain := model.Document{SourceID: "https://blog.example.com/post"}
	assert.InDelta(t, 0.4, s.score(plain), 1e-9)

	gov := model.Document{SourceID: "https://data.census.gov/table"}
	assert.InDelta(t, 0.7, s.score(gov), 1e-9)

	attributed := model.Document{SourceID: "https://en.wikipedia.org/wiki/Go", Author: "J. Writer"}
	assert.InDelta(t, 0.85, s.score(attributed), 1e-9)

	nonURL := model.Document{SourceID: "passage:17"}
	assert.InDelta(t, 0.4, s.score(nonURL), 1e-9)
}

func TestAuthenticity_ReferenceMarkers(t *testing.T) {
	s := newAuthenticityScorer([]string{"*.gov"})

	cited := model.Document{
		SourceID: "https://blog.example.com/post",
		Content:  "As shown by Smith et al. the effect is robust.",
	}
	assert.InDelta(t, 0.55, s.score(cited), 1e-9)

	doi := model.Document{
		SourceID: "https://journal.example.com/paper",
		Content:  "Full text at doi.org/10.1000/xyz123.",
	}
	assert.InDelta(t, 0.55, s.score(doi), 1e-9)

	full := model.Document{
		SourceID: "https://data.census.gov/report",
		Author:   "Bureau Staff",
		Content:  "Methodology is peer-reviewed; see references: below.",
	}
	assert.InDelta(t, 1.0, s.score(full), 1e-9)

	unmarked := model.Document{
		SourceID: "https://blog.example.com/post",
		Content:  "Just an opinion with no sourcing at all.",
	}
	assert.InDelta(t, 0.4, s.score(unmarked), 1e-9)
}
