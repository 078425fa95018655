package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/answers/internal/model"
)

// stubLane returns canned documents, an error, or blocks until cancelled.
type stubLane struct {
	kind  model.LaneKind
	docs  []model.Document
	err   error
	hang  bool
	delay time.Duration
}

func (s *stubLane) Kind() model.LaneKind { return s.kind }

func (s *stubLane) Retrieve(ctx context.Context, _ model.Query, _ int) ([]model.Document, error) {
	if s.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.docs, s.err
}

func laneResult(results []model.LaneResult, kind model.LaneKind) model.LaneResult {
	for _, r := range results {
		if r.Kind == kind {
			return r
		}
	}
	return model.LaneResult{}
}

func TestRetrieve_AllLanesSucceed(t *testing.T) {
	o := New(testLanesConfig(),
		&stubLane{kind: model.LaneWeb, docs: []model.Document{
			doc(model.LaneWeb, "https://a.example/1", "Alpha", 1.0),
			doc(model.LaneWeb, "https://b.example/2", "Beta", 0.8),
			doc(model.LaneWeb, "https://c.example/3", "Gamma", 0.6),
		}},
		&stubLane{kind: model.LaneVector, docs: []model.Document{
			doc(model.LaneVector, "p:1", "Delta", 0.9),
			doc(model.LaneVector, "p:2", "Epsilon", 0.7),
		}},
	)

	fused, results, err := o.Retrieve(context.Background(), model.Query{Text: "q", TraceID: "t1"}, time.Second)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(fused.Documents), 5)
	assert.Equal(t, model.LaneOK, laneResult(results, model.LaneWeb).Status)
	assert.Equal(t, model.LaneOK, laneResult(results, model.LaneVector).Status)
	assert.Equal(t, model.LaneDisabled, laneResult(results, model.LaneGraph).Status)
}

func TestRetrieve_BudgetEnforcedOnHangingLane(t *testing.T) {
	const budget = 200 * time.Millisecond

	o := New(testLanesConfig(),
		&stubLane{kind: model.LaneWeb, hang: true},
		&stubLane{kind: model.LaneVector, docs: []model.Document{
			doc(model.LaneVector, "p:1", "Fast result", 0.9),
		}},
	)

	start := time.Now()
	fused, results, err := o.Retrieve(context.Background(), model.Query{Text: "q"}, budget)
	elapsed := time.Since(start)

	require.NoError(t, err)
	// Budget plus a small fusion overhead allowance.
	assert.Less(t, elapsed, budget+budget/10+50*time.Millisecond)
	assert.Equal(t, model.LaneTimeout, laneResult(results, model.LaneWeb).Status)
	assert.Equal(t, model.LaneOK, laneResult(results, model.LaneVector).Status)
	// Partial evidence is still usable.
	require.Len(t, fused.Documents, 1)
}

func TestRetrieve_LaneErrorDoesNotFailQuery(t *testing.T) {
	o := New(testLanesConfig(),
		&stubLane{kind: model.LaneWeb, err: errors.New("search backend down")},
		&stubLane{kind: model.LaneGraph, docs: []model.Document{
			doc(model.LaneGraph, "ent:1", "Fact", 0.8),
		}},
	)

	fused, results, err := o.Retrieve(context.Background(), model.Query{Text: "q"}, time.Second)
	require.NoError(t, err)

	web := laneResult(results, model.LaneWeb)
	assert.Equal(t, model.LaneError, web.Status)
	assert.Empty(t, web.Documents)
	assert.NotEmpty(t, web.Err)
	require.Len(t, fused.Documents, 1)
}

func TestRetrieve_DisabledLaneViaConfig(t *testing.T) {
	cfg := testLanesConfig()
	cfg.GraphEnabled = false

	o := New(cfg, &stubLane{kind: model.LaneGraph, docs: []model.Document{
		doc(model.LaneGraph, "ent:1", "Should not appear", 0.9),
	}})

	fused, results, err := o.Retrieve(context.Background(), model.Query{Text: "q"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, model.LaneDisabled, laneResult(results, model.LaneGraph).Status)
	assert.Empty(t, fused.Documents)
}

func TestRetrieve_SubBudgetTimesOutSlowLaneOnly(t *testing.T) {
	cfg := testLanesConfig()
	cfg.WebBudgetShare = 0.1 // 40ms of the 400ms total

	o := New(cfg,
		&stubLane{kind: model.LaneWeb, delay: 200 * time.Millisecond, docs: []model.Document{
			doc(model.LaneWeb, "https://slow.example", "Slow", 1.0),
		}},
		&stubLane{kind: model.LaneVector, delay: 60 * time.Millisecond, docs: []model.Document{
			doc(model.LaneVector, "p:1", "Quick", 0.9),
		}},
	)

	_, results, err := o.Retrieve(context.Background(), model.Query{Text: "q"}, 400*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, model.LaneTimeout, laneResult(results, model.LaneWeb).Status)
	assert.Equal(t, model.LaneOK, laneResult(results, model.LaneVector).Status)
}
