package advisor

import (
	"time"

	"github.com/amolj/index_alerter/utils"
	"github.com/amolj/index_alerter/workload"
)

// StatsAggregator owns the run-scoped snapshot: it merges samples into
// per-shape statistics and persists the snapshot on a fixed cadence. One
// aggregator per sampling run; the snapshot is created fresh at run start
// and fully overwritten on every save.
type StatsAggregator struct {
	stats *workload.Stats
	store *workload.Store

	// DedupeIndexSizes switches total_index_size_bytes from the additive
	// accounting (the size of every used index counted on every execution)
	// to counting each distinct index once per shape.
	DedupeIndexSizes bool
	countedIndexes   map[string]utils.Set[utils.LowerString]

	saveInterval time.Duration
	lastSave     time.Time
}

// NewStatsAggregator creates an aggregator with a fresh snapshot for the
// given workload id, persisting through the given store.
func NewStatsAggregator(store *workload.Store, workloadID int, saveInterval time.Duration) *StatsAggregator {
	if saveInterval <= 0 {
		saveInterval = 10 * time.Second
	}
	return &StatsAggregator{
		stats:          workload.NewStats(workloadID),
		store:          store,
		countedIndexes: make(map[string]utils.Set[utils.LowerString]),
		saveInterval:   saveInterval,
		lastSave:       time.Now(),
	}
}

// Stats exposes the snapshot being built.
func (a *StatsAggregator) Stats() *workload.Stats {
	return a.stats
}

// RecordExecution merges one sample into the shape's aggregated statistics.
func (a *StatsAggregator) RecordExecution(shape QueryShape, sample Sample) {
	entry, ok := a.stats.Queries[shape.Key]
	if !ok {
		entry = &workload.QueryStats{
			FullQuery:         shape.Text,
			Tables:            shape.Tables,
			HotColumns:        shape.Columns,
			MinImprovementPct: 100.0,
			MaxImprovementPct: -100.0,
		}
		a.stats.Queries[shape.Key] = entry
	}

	entry.Executions++
	entry.TotalBaselineCost += sample.BaselineCost
	entry.TotalOptimizedCost += sample.OptimizedCost

	// min/max track this sample's own ratio; the average is weighted by
	// cost, a ratio of the cumulative sums, never a mean of ratios.
	pct := improvementPct(sample.BaselineCost, sample.OptimizedCost)
	entry.MinImprovementPct = utils.Min(entry.MinImprovementPct, pct)
	entry.MaxImprovementPct = utils.Max(entry.MaxImprovementPct, pct)
	entry.AvgImprovementPct = improvementPct(entry.TotalBaselineCost, entry.TotalOptimizedCost)

	for _, ix := range sample.UsedByQuery {
		if a.DedupeIndexSizes {
			counted, ok := a.countedIndexes[shape.Key]
			if !ok {
				counted = utils.NewSet[utils.LowerString]()
				a.countedIndexes[shape.Key] = counted
			}
			key := utils.NewLowerString(ix.Table + "(" + ix.IndexName + ")")
			if counted.Contains(key) {
				continue
			}
			counted.Add(key)
		}
		entry.TotalIndexSizeBytes += ix.SizeBytes
	}
	entry.UsedIndexes = sample.UsedByQuery
}

// CompletePhase bumps the phase counter.
func (a *StatsAggregator) CompletePhase() {
	a.stats.PhasesCompleted++
}

// Persist overwrites the snapshot on durable storage.
func (a *StatsAggregator) Persist() error {
	a.stats.HotColumns = a.hotColumns()
	a.stats.LastSave = time.Now()
	if err := a.store.SaveStats(a.stats); err != nil {
		return err
	}
	a.lastSave = a.stats.LastSave
	return nil
}

// MaybePersist persists once per cadence interval, bounding data loss to at
// most one interval. An I/O failure is logged and the run continues in memory.
func (a *StatsAggregator) MaybePersist() {
	if time.Since(a.lastSave) < a.saveInterval {
		return
	}
	if err := a.Persist(); err != nil {
		utils.Errorf("could not persist stats snapshot: %v", err)
		a.lastSave = time.Now() // retry next cadence, not next sample
	}
}

// hotColumns derives the sorted union of candidate columns across all shapes.
func (a *StatsAggregator) hotColumns() []string {
	cols := utils.NewSet[utils.LowerString]()
	for _, entry := range a.stats.Queries {
		for _, col := range entry.HotColumns {
			cols.Add(utils.LowerString(col))
		}
	}
	return cols.ToKeyList()
}

// improvementPct is (baseline-optimized)/baseline*100, 0 for a zero baseline.
// It can be negative (the oracle may pick a worse plan) but never above 100.
func improvementPct(baseline, optimized float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return (baseline - optimized) / baseline * 100
}
