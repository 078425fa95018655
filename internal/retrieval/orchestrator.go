// Package retrieval coordinates the concurrent evidence lanes and fuses
// their results into a single ranked list.
package retrieval

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/answers/internal/config"
	"github.com/sells-group/answers/internal/lane"
	"github.com/sells-group/answers/internal/model"
)

// Orchestrator fans a query out to every registered lane under a shared
// budget, then fuses whatever evidence came back. A lane failing or timing
// out never fails the whole retrieval.
type Orchestrator struct {
	cfg    config.LanesConfig
	lanes  map[model.LaneKind]lane.Lane
	fusion *Fuser
}

// New creates an orchestrator over the given lanes. Lanes not passed in are
// reported as disabled.
func New(cfg config.LanesConfig, lanes ...lane.Lane) *Orchestrator {
	m := make(map[model.LaneKind]lane.Lane, len(lanes))
	for _, l := range lanes {
		if l != nil && laneEnabled(cfg, l.Kind()) {
			m[l.Kind()] = l
		}
	}
	return &Orchestrator{
		cfg:    cfg,
		lanes:  m,
		fusion: NewFuser(cfg),
	}
}

func laneEnabled(cfg config.LanesConfig, kind model.LaneKind) bool {
	switch kind {
	case model.LaneWeb:
		return cfg.WebEnabled
	case model.LaneVector:
		return cfg.VectorEnabled
	case model.LaneGraph:
		return cfg.GraphEnabled
	default:
		return false
	}
}

func (o *Orchestrator) laneBudget(kind model.LaneKind, total time.Duration) time.Duration {
	var share float64
	switch kind {
	case model.LaneWeb:
		share = o.cfg.WebBudgetShare
	case model.LaneVector:
		share = o.cfg.VectorBudgetShare
	case model.LaneGraph:
		share = o.cfg.GraphBudgetShare
	}
	if share <= 0 || share > 1 {
		share = 1
	}
	return time.Duration(float64(total) * share)
}

// Retrieve runs every enabled lane concurrently within the total budget and
// fuses the surviving documents. It always returns a fused list (possibly
// empty) plus the per-lane outcomes; the error is reserved for programmer
// mistakes, not lane failures.
func (o *Orchestrator) Retrieve(ctx context.Context, q model.Query, totalBudget time.Duration) (*model.FusedEvidence, []model.LaneResult, error) {
	if totalBudget <= 0 {
		totalBudget = o.cfg.TotalBudget()
	}

	ctx, cancel := context.WithTimeout(ctx, totalBudget)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[model.LaneKind]model.LaneResult, 3)
	)

	g, gCtx := errgroup.WithContext(ctx)
	for _, l := range o.lanes {
		g.Go(func() error {
			res := o.runLane(gCtx, l, q, totalBudget)
			mu.Lock()
			results[res.Kind] = res
			mu.Unlock()
			return nil // a lane never fails the group
		})
	}
	_ = g.Wait()

	// Report every known lane, including ones that were never registered.
	laneResults := make([]model.LaneResult, 0, 3)
	for _, kind := range []model.LaneKind{model.LaneWeb, model.LaneVector, model.LaneGraph} {
		res, ok := results[kind]
		if !ok {
			res = model.LaneResult{Kind: kind, Status: model.LaneDisabled}
		}
		laneResults = append(laneResults, res)
	}

	var all []model.Document
	for _, res := range laneResults {
		all = append(all, res.Documents...)
	}
	fused := o.fusion.Fuse(all)

	return fused, laneResults, nil
}

func (o *Orchestrator) runLane(ctx context.Context, l lane.Lane, q model.Query, totalBudget time.Duration) model.LaneResult {
	kind := l.Kind()
	laneCtx, cancel := context.WithTimeout(ctx, o.laneBudget(kind, totalBudget))
	defer cancel()

	start := time.Now()
	docs, err := l.Retrieve(laneCtx, q, o.cfg.TopK)
	elapsed := time.Since(start)

	res := model.LaneResult{
		Kind:      kind,
		Documents: docs,
		Elapsed:   elapsed,
		Status:    model.LaneOK,
	}
	if err != nil {
		res.Documents = nil
		res.Err = err.Error()
		if laneCtx.Err() != nil {
			res.Status = model.LaneTimeout
		} else {
			res.Status = model.LaneError
		}
	}

	zap.L().Info("lane settled",
		zap.String("trace_id", q.TraceID),
		zap.String("lane", string(kind)),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", elapsed),
		zap.Int("documents", len(res.Documents)),
	)

	return res
}
