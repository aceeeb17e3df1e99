package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amolj/index_alerter/utils"
)

// HypoIndex is the handle of a hypothetical index created in the current
// session. It only exists in the planner's model, never on disk, and is
// gone once dropped or once the session ends.
type HypoIndex struct {
	OID       uint32 // oracle-assigned identifier
	IndexName string // oracle-assigned synthetic name, referenced by plans
	Table     string
	Columns   []string
	SizeBytes int64 // oracle-estimated size
}

// Key returns the key of the hypothetical index.
func (i HypoIndex) Key() string {
	return fmt.Sprintf("%v(%v)", i.Table, strings.Join(i.Columns, ","))
}

// WhatIfOptimizerStats records the statistics of a what-if optimizer.
type WhatIfOptimizerStats struct {
	ExecuteCount             int           // number of executed SQL statements
	ExecuteTime              time.Duration // total execution time
	CreateOrDropHypoIdxCount int           // number of executed CreateHypoIndex/DropHypoIndex
	CreateOrDropHypoIdxTime  time.Duration // total execution time of CreateHypoIndex/DropHypoIndex
	GetCostCount             int           // number of executed cost estimations
	GetCostTime              time.Duration // total execution time of cost estimations
}

// Format formats the statistics.
func (s WhatIfOptimizerStats) Format() string {
	return fmt.Sprintf(`Execute(count/time): (%v/%v), CreateOrDropHypoIndex: (%v/%v), GetCost: (%v/%v)`,
		s.ExecuteCount, s.ExecuteTime, s.CreateOrDropHypoIdxCount, s.CreateOrDropHypoIdxTime, s.GetCostCount, s.GetCostTime)
}

// WhatIfOptimizer is the interface of a what-if cost oracle. Hypothetical
// indexes are session-scoped: callers must retract everything they created
// before the connection serves another query.
type WhatIfOptimizer interface {
	Execute(ctx context.Context, sql string) error // execute the specified SQL statement
	Close(ctx context.Context) error               // release the underlying database connection

	EstimateCost(ctx context.Context, query string) (float64, error)    // planner cost estimate of the query
	Explain(ctx context.Context, query string) (ExplainOutput, error)   // cost estimate plus the inspectable plan

	CreateHypoIndex(ctx context.Context, table string, columns []string) (HypoIndex, error) // create a hypothetical index
	HypoIndexSize(ctx context.Context, index HypoIndex) (int64, error)                      // oracle-estimated size in bytes
	DropHypoIndex(ctx context.Context, index HypoIndex) error                               // drop a hypothetical index
	ResetHypoIndexes(ctx context.Context) error                                             // drop every hypothetical index in this session

	ResetStats()                 // reset the statistics
	Stats() WhatIfOptimizerStats // return the statistics

	SetDebug(flag bool) // print each query if set to true
}

// Catalog reads the live index catalog. The alerter queries it fresh on
// every invocation while the sampler caches its answer once at startup.
type Catalog interface {
	// IndexedColumns returns the columns of the table covered by existing real indexes.
	IndexedColumns(ctx context.Context, table string) (utils.Set[utils.LowerString], error)
	// RealIndexSize measures the realized size of an index on (table, column)
	// by materializing a temporary real index and discarding it.
	RealIndexSize(ctx context.Context, table, column string) (int64, error)
}
