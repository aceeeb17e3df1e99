package advisor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
	"github.com/amolj/index_alerter/workload"
)

const (
	// maxCandidates bounds how many columns one recommendation may cover.
	maxCandidates = 3
	// dropCostFactor estimates the cost of dropping an index as a fraction of
	// creating one.
	dropCostFactor = 0.2
	// fallbackScanCost stands in for the table scan cost when the oracle
	// cannot estimate it.
	fallbackScanCost = 1000.0
	// fallbackIndexSizeBytes stands in for the index size when the catalog
	// cannot measure it.
	fallbackIndexSizeBytes = 5_000_000
)

// DecisionEngine turns a persisted stats snapshot into a recommendation:
// either a concrete set of indexes to create, or NO_ACTION with the guard
// that fired. It is read-only against the target database; the DDL it emits
// is never executed.
type DecisionEngine struct {
	opt     optimizer.WhatIfOptimizer
	catalog optimizer.Catalog
	store   *workload.Store

	// ImprovementThreshold is the minimum average improvement percentage a
	// snapshot must show before indexes are worth proposing.
	ImprovementThreshold float64
	// SpaceBudgetBytes caps the combined estimated size of the proposed
	// indexes. Zero or negative disables the budget guard.
	SpaceBudgetBytes int64
}

// NewDecisionEngine creates a decision engine over the given oracle, catalog
// and store.
func NewDecisionEngine(opt optimizer.WhatIfOptimizer, catalog optimizer.Catalog, store *workload.Store) *DecisionEngine {
	return &DecisionEngine{
		opt:     opt,
		catalog: catalog,
		store:   store,
	}
}

// candidate is a hot column ranked for recommendation.
type candidate struct {
	column string
	table  string
	shapes int // distinct shapes referencing the column
	seen   int // first-seen rank, breaks ties deterministically
}

// Analyze loads the snapshot for the workload id, evaluates the decision
// guards in order and persists the resulting recommendation. A missing
// snapshot is reported as workload.ErrNoStats; every other outcome yields a
// persisted recommendation, NO_ACTION included.
func (e *DecisionEngine) Analyze(ctx context.Context, workloadID int) (*workload.Recommendation, error) {
	stats, err := e.store.LoadStats(workloadID)
	if err != nil {
		return nil, err
	}

	rec := &workload.Recommendation{
		Timestamp:          time.Now(),
		WorkloadID:         workloadID,
		RecommendedIndexes: []workload.RecommendedIndex{},
	}

	candidates, err := e.rankCandidates(ctx, stats)
	if err != nil {
		return nil, err
	}

	improvementPct := e.meanImprovementPct(stats)
	improvementValue := totalImprovementValue(stats)
	rec.ImprovementPct = round2(improvementPct)
	rec.ImprovementValue = round2(improvementValue)

	if len(candidates) == 0 {
		rec.Decision = workload.DecisionNoAction
		rec.Reason = "all hot columns already indexed"
		return rec, e.finish(rec, nil)
	}

	retuningCost := e.retuningCost(ctx, candidates)
	netBenefit := improvementValue - retuningCost
	rec.RetuningCost = round2(retuningCost)
	rec.NetBenefit = round2(netBenefit)

	indexes, tables, totalSize := e.proposedIndexes(ctx, candidates)

	switch {
	case improvementPct < e.ImprovementThreshold:
		rec.Decision = workload.DecisionNoAction
		rec.Reason = fmt.Sprintf("average improvement %.2f%% below threshold %.2f%%",
			improvementPct, e.ImprovementThreshold)
	case netBenefit <= 0:
		rec.Decision = workload.DecisionNoAction
		rec.Reason = fmt.Sprintf("net benefit %.2f <= 0 (retuning cost exceeds savings)", netBenefit)
	case e.SpaceBudgetBytes > 0 && totalSize > e.SpaceBudgetBytes:
		rec.Decision = workload.DecisionNoAction
		rec.Reason = fmt.Sprintf("estimated index size %d bytes exceeds space budget %d bytes",
			totalSize, e.SpaceBudgetBytes)
	default:
		rec.Decision = workload.DecisionCreateIndexes
		rec.Reason = fmt.Sprintf("average improvement %.2f%% over %d shapes, net benefit %.2f",
			improvementPct, len(stats.Queries), netBenefit)
		rec.RecommendedIndexes = indexes
	}
	return rec, e.finish(rec, tables)
}

// finish logs the recommendation as an operator-facing report and persists it.
func (e *DecisionEngine) finish(rec *workload.Recommendation, tables map[string]string) error {
	utils.Infof("workload %d decision: %v (%v)", rec.WorkloadID, rec.Decision, rec.Reason)
	utils.Infof("improvement %.2f%%, value %.2f, retuning cost %.2f, net benefit %.2f",
		rec.ImprovementPct, rec.ImprovementValue, rec.RetuningCost, rec.NetBenefit)
	for _, ix := range rec.RecommendedIndexes {
		utils.Infof("recommended: %v (estimated %.2f MB)", ix.DDL(tables[ix.Column]), ix.EstimatedSizeMB)
	}
	if err := e.store.SaveRecommendation(rec); err != nil {
		return err
	}
	return nil
}

// rankCandidates ranks hot columns by the number of distinct shapes that
// reference them and drops columns the live catalog already has indexed.
// Shapes are scanned in sorted key order and each shape's column list in
// stored order, so the ranking is deterministic across invocations.
func (e *DecisionEngine) rankCandidates(ctx context.Context, stats *workload.Stats) ([]candidate, error) {
	keys := make([]string, 0, len(stats.Queries))
	for key := range stats.Queries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	byColumn := make(map[string]*candidate)
	order := 0
	for _, key := range keys {
		entry := stats.Queries[key]
		if len(entry.Tables) == 0 {
			continue
		}
		for _, col := range entry.HotColumns {
			c, ok := byColumn[col]
			if !ok {
				// the column belongs to the first table of the first shape
				// that referenced it
				c = &candidate{column: col, table: entry.Tables[0], seen: order}
				byColumn[col] = c
				order++
			}
			c.shapes++
		}
	}

	indexed := make(map[string]utils.Set[utils.LowerString])
	ranked := make([]candidate, 0, len(byColumn))
	for _, c := range byColumn {
		cols, ok := indexed[c.table]
		if !ok {
			fetched, err := e.catalog.IndexedColumns(ctx, c.table)
			if err != nil {
				return nil, fmt.Errorf("listing indexed columns of %v: %w", c.table, err)
			}
			cols = fetched
			indexed[c.table] = cols
		}
		if cols.ContainsKey(c.column) {
			continue
		}
		ranked = append(ranked, *c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].shapes != ranked[j].shapes {
			return ranked[i].shapes > ranked[j].shapes
		}
		return ranked[i].seen < ranked[j].seen
	})
	if len(ranked) > maxCandidates {
		ranked = ranked[:maxCandidates]
	}
	return ranked, nil
}

// meanImprovementPct is the plain mean of the per-shape weighted averages.
// Every shape counts equally here regardless of execution count; the
// execution weighting already happened inside each shape's own average.
func (e *DecisionEngine) meanImprovementPct(stats *workload.Stats) float64 {
	if len(stats.Queries) == 0 {
		return 0
	}
	sum := 0.0
	for _, entry := range stats.Queries {
		sum += entry.AvgImprovementPct
	}
	return sum / float64(len(stats.Queries))
}

// totalImprovementValue is the cumulative planner cost saved across all
// shapes, the same unit as the retuning cost.
func totalImprovementValue(stats *workload.Stats) float64 {
	value := 0.0
	for _, entry := range stats.Queries {
		value += entry.TotalBaselineCost - entry.TotalOptimizedCost
	}
	return value
}

// retuningCost estimates creating plus eventually dropping each candidate
// index. Index creation scans the table, so the creation cost is modeled by
// the planner's full scan estimate.
func (e *DecisionEngine) retuningCost(ctx context.Context, candidates []candidate) float64 {
	total := 0.0
	for _, c := range candidates {
		createCost, err := e.opt.EstimateCost(ctx, "SELECT COUNT(*) FROM "+c.table)
		if err != nil || createCost <= 0 {
			utils.Debugf("falling back to default scan cost for %v: %v", c.table, err)
			createCost = fallbackScanCost
		}
		total += createCost + dropCostFactor*createCost
	}
	return total
}

// proposedIndexes builds the recommendation entries for the candidates,
// probing the catalog for a realistic size estimate per index. It also
// returns the column-to-table mapping for DDL rendering and the combined
// estimated size.
func (e *DecisionEngine) proposedIndexes(ctx context.Context, candidates []candidate) ([]workload.RecommendedIndex, map[string]string, int64) {
	indexes := make([]workload.RecommendedIndex, 0, len(candidates))
	tables := make(map[string]string, len(candidates))
	var totalSize int64
	for _, c := range candidates {
		size, err := e.catalog.RealIndexSize(ctx, c.table, c.column)
		if err != nil || size <= 0 {
			utils.Debugf("falling back to default index size for %v.%v: %v", c.table, c.column, err)
			size = fallbackIndexSizeBytes
		}
		indexes = append(indexes, workload.RecommendedIndex{
			Name:            "idx_opt_" + c.column,
			Column:          c.column,
			EstimatedSizeMB: round2(float64(size) / 1e6),
		})
		tables[c.column] = c.table
		totalSize += size
	}
	return indexes, tables, totalSize
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
