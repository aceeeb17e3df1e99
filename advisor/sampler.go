package advisor

import (
	"context"

	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
	"github.com/amolj/index_alerter/workload"
)

const (
	// maxHypoIndexes caps how many hypothetical indexes one sampling call may
	// create, to avoid overwhelming the planner.
	maxHypoIndexes = 50
	// maxIndexWidth bounds the enumerated composite indexes to realistic widths.
	maxIndexWidth = 3
)

// Sample is one cost measurement of a query shape. AllCreated and UsedByQuery
// are returned explicitly and consumed immediately by the aggregator; they
// carry no meaning across calls.
type Sample struct {
	BaselineCost  float64
	OptimizedCost float64
	AllCreated    []workload.UsedIndex
	UsedByQuery   []workload.UsedIndex
}

// CostSampler measures the planner-estimated cost of a query without and
// with hypothetical indexes, and detects which proposed indexes the planner
// actually elected to use.
type CostSampler struct {
	opt optimizer.WhatIfOptimizer

	// catalog inventory, fetched once per table and deliberately not
	// refreshed mid-run: a sampling run measures against the schema it
	// started with.
	catalog     optimizer.Catalog
	indexedCols map[string]utils.Set[utils.LowerString]
}

// NewCostSampler creates a sampler on top of the given cost oracle and catalog.
func NewCostSampler(opt optimizer.WhatIfOptimizer, catalog optimizer.Catalog) *CostSampler {
	return &CostSampler{
		opt:         opt,
		catalog:     catalog,
		indexedCols: make(map[string]utils.Set[utils.LowerString]),
	}
}

// BaselineCost returns the planner cost estimate of the query with no
// hypothetical indexes visible.
func (s *CostSampler) BaselineCost(ctx context.Context, query string) (float64, error) {
	return s.opt.EstimateCost(ctx, query)
}

// existingIndexedColumns returns the union of already-indexed columns over
// the given tables, querying the catalog at most once per table per run.
func (s *CostSampler) existingIndexedColumns(ctx context.Context, tables []string) utils.Set[utils.LowerString] {
	existing := utils.NewSet[utils.LowerString]()
	for _, table := range tables {
		cols, cached := s.indexedCols[table]
		if !cached {
			fetched, err := s.catalog.IndexedColumns(ctx, table)
			if err != nil {
				utils.Warningf("could not list indexed columns of %v: %v", table, err)
				fetched = utils.NewSet[utils.LowerString]()
			}
			cols = fetched
			s.indexedCols[table] = cols
		}
		existing.AddList(cols.ToList()...)
	}
	return existing
}

// SampleQuery measures one execution of the shape: baseline cost, optimized
// cost under the enumerated hypothetical indexes, and the indexes the
// planner used. Every hypothetical index created here is retracted before
// returning, on every exit path.
func (s *CostSampler) SampleQuery(ctx context.Context, shape QueryShape) (Sample, error) {
	baseline, err := s.BaselineCost(ctx, shape.Text)
	if err != nil {
		return Sample{}, err
	}

	existing := s.existingIndexedColumns(ctx, shape.Tables)
	var newColumns []string
	for _, col := range shape.Columns {
		if !existing.ContainsKey(col) {
			newColumns = append(newColumns, col)
		}
	}
	if len(newColumns) == 0 {
		// every candidate column is already indexed, no improvement to claim
		return Sample{BaselineCost: baseline, OptimizedCost: baseline}, nil
	}

	created := s.createHypoIndexes(ctx, shape.Tables, newColumns)
	defer s.retract(ctx, created)
	if len(created) == 0 {
		return Sample{BaselineCost: baseline, OptimizedCost: baseline}, nil
	}

	sample := Sample{
		BaselineCost:  baseline,
		OptimizedCost: baseline, // until the oracle says otherwise
		AllCreated:    toUsedIndexes(created),
	}

	// One competitive EXPLAIN with every hypothetical index visible: the
	// planner chooses freely among them, which is the interesting signal.
	out, err := s.opt.Explain(ctx, shape.Text)
	if err != nil {
		utils.Warningf("explain with hypothetical indexes failed, falling back to baseline: %v", err)
		return sample, nil
	}
	sample.OptimizedCost = out.PlanCost()
	for _, ix := range created {
		if out.UsesIndex(ix.IndexName) {
			sample.UsedByQuery = append(sample.UsedByQuery, toUsedIndex(ix))
		}
	}
	return sample, nil
}

// createHypoIndexes enumerates column combinations of size 1..maxIndexWidth,
// crossed with every referenced table (table-major, combination-minor), and
// creates one hypothetical index per pair up to maxHypoIndexes.
func (s *CostSampler) createHypoIndexes(ctx context.Context, tables, newColumns []string) []optimizer.HypoIndex {
	var combos [][]string
	for width := 1; width <= maxIndexWidth; width++ {
		combos = append(combos, utils.Combinations(newColumns, width)...)
	}

	var created []optimizer.HypoIndex
	for _, table := range tables {
		for _, combo := range combos {
			if len(created) >= maxHypoIndexes {
				return created
			}
			ix, err := s.opt.CreateHypoIndex(ctx, table, combo)
			if err != nil {
				utils.Debugf("could not create hypothetical index on %v%v: %v", table, combo, err)
				continue
			}
			created = append(created, ix)
		}
	}
	return created
}

// retract drops every hypothetical index created in this call, then resets
// the session as a backstop. Hypothetical state must never leak into a
// later call.
func (s *CostSampler) retract(ctx context.Context, created []optimizer.HypoIndex) {
	for _, ix := range created {
		if err := s.opt.DropHypoIndex(ctx, ix); err != nil {
			utils.Warningf("could not drop hypothetical index %v: %v", ix.IndexName, err)
		}
	}
	if len(created) > 0 {
		if err := s.opt.ResetHypoIndexes(ctx); err != nil {
			utils.Warningf("could not reset hypothetical indexes: %v", err)
		}
	}
}

func toUsedIndex(ix optimizer.HypoIndex) workload.UsedIndex {
	return workload.UsedIndex{
		IndexName: ix.IndexName,
		Columns:   ix.Columns,
		Table:     ix.Table,
		SizeBytes: ix.SizeBytes,
	}
}

func toUsedIndexes(ixs []optimizer.HypoIndex) []workload.UsedIndex {
	used := make([]workload.UsedIndex, 0, len(ixs))
	for _, ix := range ixs {
		used = append(used, toUsedIndex(ix))
	}
	return used
}
