package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crimson-sun/beacon/internal/engine"
	"github.com/crimson-sun/beacon/internal/model"
)

// annotate classifies and vectorizes signals on a bounded worker pool. One
// signal failing never aborts the batch; its outcome is recorded and the
// rest continue. Signals not started before the budget ran out are skipped.
func (r *Runner) annotate(ctx context.Context, signals []model.Signal, res *model.BatchResult) []engine.Annotation {
	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		annotations = make(map[string]engine.Annotation, len(signals))
		outcomes    = make(map[string]model.SignalOutcome, len(signals))
	)
	sem := make(chan struct{}, r.workers)

	for _, sig := range signals {
		if ctx.Err() != nil {
			mu.Lock()
			outcomes[sig.ID] = model.SignalOutcome{SignalID: sig.ID, Status: "skipped", Error: ctx.Err().Error()}
			mu.Unlock()
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(sig model.Signal) {
			defer wg.Done()
			defer func() { <-sem }()

			begin := time.Now()
			ann, err := r.engine.Process(ctx, sig)
			outcome := model.SignalOutcome{SignalID: sig.ID, Status: "success", Duration: time.Since(begin)}
			if err != nil {
				outcome.Status = "error"
				outcome.Error = err.Error()
				r.log.Warn("signal annotation failed", "signal", sig.ID, "error", err)
			}

			mu.Lock()
			outcomes[sig.ID] = outcome
			if err == nil {
				annotations[sig.ID] = ann
			}
			mu.Unlock()
		}(sig)
	}
	wg.Wait()

	res.Signals = make([]model.SignalOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		res.Signals = append(res.Signals, o)
		switch o.Status {
		case "success":
			res.Succeeded++
		case "error":
			res.Failed++
		default:
			res.Skipped++
		}
	}
	sort.Slice(res.Signals, func(i, j int) bool { return res.Signals[i].SignalID < res.Signals[j].SignalID })

	var confSum float64
	for _, a := range annotations {
		res.RootCauseCounts[a.Classification.RootCause]++
		confSum += a.Classification.Confidence
		if a.Classification.NeedsReview {
			res.FlaggedForReview++
		}
	}
	if len(annotations) > 0 {
		res.AvgConfidence = confSum / float64(len(annotations))
	}

	out := make([]engine.Annotation, 0, len(annotations))
	for _, sig := range signals {
		if a, ok := annotations[sig.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}
