package workload

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatsRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	stats := NewStats(7)
	stats.PhasesCompleted = 2
	stats.HotColumns = []string{"o_custkey", "o_totalprice"}
	stats.Queries["SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 1"] = &QueryStats{
		FullQuery:           "SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 1",
		Tables:              []string{"orders"},
		HotColumns:          []string{"o_totalprice"},
		Executions:          10,
		TotalBaselineCost:   1000,
		TotalOptimizedCost:  400,
		AvgImprovementPct:   60,
		MinImprovementPct:   55.5,
		MaxImprovementPct:   62.25,
		TotalIndexSizeBytes: 123456,
		UsedIndexes: []UsedIndex{
			{IndexName: "<13000>btree_orders_o_totalprice", Columns: []string{"o_totalprice"}, Table: "orders", SizeBytes: 123456},
		},
	}
	stats.LastSave = time.Now()

	require.NoError(t, store.SaveStats(stats))

	loaded, err := store.LoadStats(7)
	require.NoError(t, err)
	require.Equal(t, stats.WorkloadID, loaded.WorkloadID)
	require.Equal(t, stats.PhasesCompleted, loaded.PhasesCompleted)
	require.Equal(t, stats.HotColumns, loaded.HotColumns)
	require.Len(t, loaded.Queries, 1)
	for k, q := range stats.Queries {
		require.Equal(t, q, loaded.Queries[k])
	}
}

func TestLoadStatsMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.LoadStats(42)
	require.ErrorIs(t, err, ErrNoStats)
}

func TestSaveRecommendationOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())

	first := &Recommendation{WorkloadID: 1, Decision: DecisionCreateIndexes, Timestamp: time.Now()}
	require.NoError(t, store.SaveRecommendation(first))

	second := &Recommendation{WorkloadID: 1, Decision: DecisionNoAction, Reason: "below threshold", Timestamp: time.Now()}
	require.NoError(t, store.SaveRecommendation(second))

	data, err := os.ReadFile(store.RecommendationPath(1))
	require.NoError(t, err)
	require.Contains(t, string(data), DecisionNoAction)
	require.NotContains(t, string(data), DecisionCreateIndexes)
}

func TestRecommendedIndexDDL(t *testing.T) {
	ix := RecommendedIndex{Name: "idx_opt_o_custkey", Column: "o_custkey"}
	require.Equal(t, "CREATE INDEX idx_opt_o_custkey ON orders (o_custkey);", ix.DDL("orders"))
}
