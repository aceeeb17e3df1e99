package advisor

import (
	"context"
	"strings"
	"time"

	"github.com/amolj/index_alerter/utils"
)

// Runner drives a sampling run: a fixed ordered sequence of phases, each
// replaying its query list round-robin until the phase deadline elapses.
// Everything is strictly sequential on one oracle connection.
type Runner struct {
	sampler *CostSampler
	agg     *StatsAggregator

	phases        []Phase
	phaseDuration time.Duration
	phasePause    time.Duration
}

// NewRunner creates a runner over the given phases.
func NewRunner(sampler *CostSampler, agg *StatsAggregator, phases []Phase, phaseDuration time.Duration) *Runner {
	return &Runner{
		sampler:       sampler,
		agg:           agg,
		phases:        phases,
		phaseDuration: phaseDuration,
		phasePause:    2 * time.Second,
	}
}

// Run executes every phase in order. The snapshot is persisted once more on
// the way out, whatever the outcome, so an interrupted run loses at most one
// cadence interval of samples.
func (r *Runner) Run(ctx context.Context) (err error) {
	defer func() {
		if perr := r.agg.Persist(); perr != nil {
			utils.Errorf("could not persist final stats snapshot: %v", perr)
			if err == nil {
				err = perr
			}
		}
	}()

	for num, phase := range r.phases {
		if err := r.runPhase(ctx, num, phase); err != nil {
			return err
		}
		r.agg.CompletePhase()
		if num < len(r.phases)-1 {
			utils.Debugf("pausing %v before next phase", r.phasePause)
			select {
			case <-time.After(r.phasePause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	stats := r.agg.Stats()
	utils.Infof("sampling run complete: %d phases, %d unique shapes, %d executions, hot columns [%v]",
		stats.PhasesCompleted, len(stats.Queries), stats.TotalExecutions(), strings.Join(stats.HotColumns, ", "))
	return nil
}

// runPhase replays the phase's queries round-robin until the wall-clock
// deadline. The deadline is only checked between full passes, so a slow
// query can overrun the nominal duration. A failed sample is skipped, never
// fatal.
func (r *Runner) runPhase(ctx context.Context, num int, phase Phase) error {
	utils.Infof("workload %d - phase %d: %d queries for %v",
		r.agg.Stats().WorkloadID, num, len(phase.Queries), r.phaseDuration)

	deadline := time.Now().Add(r.phaseDuration)
	executions := 0
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, query := range phase.Queries {
			shape := NewQueryShape(query)
			if !shape.Indexable() {
				// nothing to index, not counted as an execution
				continue
			}
			sample, err := r.sampler.SampleQuery(ctx, shape)
			if err != nil {
				utils.Warningf("skipping sample for shape %q: %v", shape.Key, err)
				continue
			}
			r.agg.RecordExecution(shape, sample)
			executions++
			r.agg.MaybePersist()
		}
	}

	utils.Infof("phase %d complete: %d executions, %d unique shapes",
		num, executions, len(r.agg.Stats().Queries))
	return nil
}
