package workload

import (
	"fmt"
	"time"
)

// UsedIndex is a hypothetical index the planner elected to use for one sample.
type UsedIndex struct {
	IndexName string   `json:"index_name"`
	Columns   []string `json:"columns"`
	Table     string   `json:"table"`
	SizeBytes int64    `json:"size_bytes"`
}

// QueryStats aggregates all samples of one query shape.
type QueryStats struct {
	FullQuery  string   `json:"full_query"`
	Tables     []string `json:"tables"`
	HotColumns []string `json:"hot_columns"`

	Executions         int     `json:"executions"`
	TotalBaselineCost  float64 `json:"total_baseline_cost"`
	TotalOptimizedCost float64 `json:"total_optimized_cost"`

	// AvgImprovementPct is weighted by cost: (Σbaseline-Σoptimized)/Σbaseline*100.
	// Min/Max track each sample's own (baseline-optimized)/baseline*100.
	AvgImprovementPct float64 `json:"avg_improvement_pct"`
	MinImprovementPct float64 `json:"min_improvement_pct"`
	MaxImprovementPct float64 `json:"max_improvement_pct"`

	TotalIndexSizeBytes int64       `json:"total_index_size_bytes"`
	UsedIndexes         []UsedIndex `json:"used_indexes"`
}

// Stats is the full snapshot of one sampling run.
type Stats struct {
	WorkloadID      int                    `json:"workload_id"`
	RunTime         time.Time              `json:"run_time"`
	Queries         map[string]*QueryStats `json:"queries"`
	PhasesCompleted int                    `json:"phases_completed"`
	HotColumns      []string               `json:"hot_columns"`
	LastSave        time.Time              `json:"last_save"`
}

// NewStats creates a fresh snapshot for the given workload id.
func NewStats(workloadID int) *Stats {
	return &Stats{
		WorkloadID: workloadID,
		RunTime:    time.Now(),
		Queries:    make(map[string]*QueryStats),
	}
}

// TotalExecutions sums executions over all query shapes.
func (s *Stats) TotalExecutions() int {
	total := 0
	for _, q := range s.Queries {
		total += q.Executions
	}
	return total
}

// Decision values of a Recommendation.
const (
	DecisionNoAction      = "NO_ACTION"
	DecisionCreateIndexes = "CREATE_INDEXES"
)

// RecommendedIndex is one index the alerter recommends to create.
type RecommendedIndex struct {
	Name            string  `json:"name"`
	Column          string  `json:"column"`
	EstimatedSizeMB float64 `json:"estimated_size_mb"`
}

// DDL renders the CREATE INDEX statement for the operator. It is never executed.
func (r RecommendedIndex) DDL(table string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s);", r.Name, table, r.Column)
}

// Recommendation is the decision produced by one alerter invocation.
type Recommendation struct {
	Timestamp          time.Time          `json:"timestamp"`
	WorkloadID         int                `json:"workload_id"`
	Decision           string             `json:"decision"`
	Reason             string             `json:"reason"`
	ImprovementPct     float64            `json:"improvement_pct"`
	ImprovementValue   float64            `json:"improvement_value"`
	RetuningCost       float64            `json:"retuning_cost"`
	NetBenefit         float64            `json:"net_benefit"`
	RecommendedIndexes []RecommendedIndex `json:"recommended_indexes"`
}
