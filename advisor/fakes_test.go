package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/amolj/index_alerter/optimizer"
	"github.com/amolj/index_alerter/utils"
)

// fakeOptimizer is an in-memory cost oracle. Baseline costs come from the
// costs map; once hypothetical indexes are active, Explain reports the
// optimized cost and a plan referencing the indexes whose Key() is listed in
// usedIndexes for that query.
type fakeOptimizer struct {
	costs       map[string]float64  // query text -> baseline planner cost
	optimized   map[string]float64  // query text -> cost with hypothetical indexes
	usedIndexes map[string][]string // query text -> HypoIndex keys the planner picks
	defaultCost float64

	active  []optimizer.HypoIndex
	nextOID uint32

	createErr  error
	explainErr error

	creates int
	drops   int
	resets  int
}

func newFakeOptimizer() *fakeOptimizer {
	return &fakeOptimizer{
		costs:       make(map[string]float64),
		optimized:   make(map[string]float64),
		usedIndexes: make(map[string][]string),
		defaultCost: 100,
		nextOID:     13000,
	}
}

func (f *fakeOptimizer) Execute(ctx context.Context, sql string) error { return nil }
func (f *fakeOptimizer) Close(ctx context.Context) error               { return nil }

func (f *fakeOptimizer) EstimateCost(ctx context.Context, query string) (float64, error) {
	if cost, ok := f.costs[query]; ok {
		return cost, nil
	}
	return f.defaultCost, nil
}

func (f *fakeOptimizer) Explain(ctx context.Context, query string) (optimizer.ExplainOutput, error) {
	if f.explainErr != nil {
		return optimizer.ExplainOutput{}, f.explainErr
	}
	cost, ok := f.costs[query]
	if !ok {
		cost = f.defaultCost
	}
	var names []string
	if len(f.active) > 0 {
		if opt, ok := f.optimized[query]; ok {
			cost = opt
		}
		picked := f.usedIndexes[query]
		for _, ix := range f.active {
			for _, key := range picked {
				if ix.Key() == key {
					names = append(names, ix.IndexName)
				}
			}
		}
	}
	return optimizer.ParseExplainOutput([]byte(explainJSON(cost, names)))
}

func (f *fakeOptimizer) CreateHypoIndex(ctx context.Context, table string, columns []string) (optimizer.HypoIndex, error) {
	if f.createErr != nil {
		return optimizer.HypoIndex{}, f.createErr
	}
	f.creates++
	f.nextOID++
	ix := optimizer.HypoIndex{
		OID:       f.nextOID,
		IndexName: fmt.Sprintf("<%d>btree_%s_%s", f.nextOID, table, strings.Join(columns, "_")),
		Table:     table,
		Columns:   columns,
		SizeBytes: int64(1000 * len(columns)),
	}
	f.active = append(f.active, ix)
	return ix, nil
}

func (f *fakeOptimizer) HypoIndexSize(ctx context.Context, index optimizer.HypoIndex) (int64, error) {
	return index.SizeBytes, nil
}

func (f *fakeOptimizer) DropHypoIndex(ctx context.Context, index optimizer.HypoIndex) error {
	f.drops++
	for i, ix := range f.active {
		if ix.OID == index.OID {
			f.active = append(f.active[:i], f.active[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("hypothetical index %v not found", index.IndexName)
}

func (f *fakeOptimizer) ResetHypoIndexes(ctx context.Context) error {
	f.resets++
	f.active = nil
	return nil
}

func (f *fakeOptimizer) ResetStats()                           {}
func (f *fakeOptimizer) Stats() optimizer.WhatIfOptimizerStats { return optimizer.WhatIfOptimizerStats{} }
func (f *fakeOptimizer) SetDebug(flag bool)                    {}

// explainJSON renders a minimal EXPLAIN (FORMAT JSON) document: a root scan
// node with one Index Scan child per index name.
func explainJSON(cost float64, indexNames []string) string {
	var children []string
	for _, name := range indexNames {
		children = append(children,
			fmt.Sprintf(`{"Node Type": "Index Scan", "Total Cost": %.2f, "Index Name": %q}`, cost/2, name))
	}
	if len(children) == 0 {
		return fmt.Sprintf(`[{"Plan": {"Node Type": "Seq Scan", "Total Cost": %.2f}}]`, cost)
	}
	return fmt.Sprintf(`[{"Plan": {"Node Type": "Aggregate", "Total Cost": %.2f, "Plans": [%s]}}]`,
		cost, strings.Join(children, ", "))
}

// fakeCatalog is an in-memory index catalog.
type fakeCatalog struct {
	indexed map[string][]string // table -> already-indexed columns
	sizes   map[string]int64    // "table.column" -> realized index size
	calls   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		indexed: make(map[string][]string),
		sizes:   make(map[string]int64),
	}
}

func (f *fakeCatalog) IndexedColumns(ctx context.Context, table string) (utils.Set[utils.LowerString], error) {
	f.calls++
	cols := utils.NewSet[utils.LowerString]()
	for _, col := range f.indexed[table] {
		cols.Add(utils.NewLowerString(col))
	}
	return cols, nil
}

func (f *fakeCatalog) RealIndexSize(ctx context.Context, table, column string) (int64, error) {
	if size, ok := f.sizes[table+"."+column]; ok {
		return size, nil
	}
	return 0, fmt.Errorf("no size probe for %v.%v", table, column)
}
