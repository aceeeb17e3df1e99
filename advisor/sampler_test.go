package advisor

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleQuery = "SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 150000 AND o.o_custkey > 1000"

func TestSampleQueryMeasuresImprovement(t *testing.T) {
	opt := newFakeOptimizer()
	opt.costs[sampleQuery] = 1000
	opt.optimized[sampleQuery] = 400
	opt.usedIndexes[sampleQuery] = []string{"orders(o_custkey)"}

	sampler := NewCostSampler(opt, newFakeCatalog())
	sample, err := sampler.SampleQuery(context.Background(), NewQueryShape(sampleQuery))
	require.NoError(t, err)

	require.Equal(t, 1000.0, sample.BaselineCost)
	require.Equal(t, 400.0, sample.OptimizedCost)
	// 2 candidate columns enumerate C(2,1)+C(2,2) = 3 indexes
	require.Len(t, sample.AllCreated, 3)
	require.Len(t, sample.UsedByQuery, 1)
	require.Equal(t, "orders", sample.UsedByQuery[0].Table)
	require.Equal(t, []string{"o_custkey"}, sample.UsedByQuery[0].Columns)
}

func TestSampleQueryRetractsEverything(t *testing.T) {
	opt := newFakeOptimizer()
	sampler := NewCostSampler(opt, newFakeCatalog())

	_, err := sampler.SampleQuery(context.Background(), NewQueryShape(sampleQuery))
	require.NoError(t, err)

	require.Empty(t, opt.active)
	require.Equal(t, opt.creates, opt.drops)
	require.Equal(t, 1, opt.resets)
}

func TestSampleQueryRetractsOnExplainError(t *testing.T) {
	opt := newFakeOptimizer()
	opt.costs[sampleQuery] = 1000
	opt.explainErr = fmt.Errorf("boom")
	sampler := NewCostSampler(opt, newFakeCatalog())

	sample, err := sampler.SampleQuery(context.Background(), NewQueryShape(sampleQuery))
	require.NoError(t, err)

	// the failed measurement claims no improvement
	require.Equal(t, sample.BaselineCost, sample.OptimizedCost)
	require.Empty(t, sample.UsedByQuery)
	require.Empty(t, opt.active)
	require.Equal(t, opt.creates, opt.drops)
}

func TestSampleQueryAllColumnsIndexed(t *testing.T) {
	opt := newFakeOptimizer()
	opt.costs[sampleQuery] = 1000
	catalog := newFakeCatalog()
	catalog.indexed["orders"] = []string{"o_totalprice", "o_custkey"}
	sampler := NewCostSampler(opt, catalog)

	sample, err := sampler.SampleQuery(context.Background(), NewQueryShape(sampleQuery))
	require.NoError(t, err)

	require.Equal(t, 1000.0, sample.BaselineCost)
	require.Equal(t, 1000.0, sample.OptimizedCost)
	require.Empty(t, sample.AllCreated)
	require.Zero(t, opt.creates)
}

func TestSampleQueryCapsEnumeration(t *testing.T) {
	var preds []string
	for i := 1; i <= 8; i++ {
		preds = append(preds, fmt.Sprintf("o.col%d > %d", i, i))
	}
	query := "SELECT COUNT(*) FROM orders o WHERE " + strings.Join(preds, " AND ")

	opt := newFakeOptimizer()
	sampler := NewCostSampler(opt, newFakeCatalog())
	sample, err := sampler.SampleQuery(context.Background(), NewQueryShape(query))
	require.NoError(t, err)

	// 8 columns would enumerate C(8,1)+C(8,2)+C(8,3) = 92 indexes
	require.Len(t, sample.AllCreated, maxHypoIndexes)
	require.Empty(t, opt.active)
}

func TestSampleQueryCachesCatalogLookups(t *testing.T) {
	opt := newFakeOptimizer()
	catalog := newFakeCatalog()
	sampler := NewCostSampler(opt, catalog)
	shape := NewQueryShape(sampleQuery)

	for i := 0; i < 5; i++ {
		_, err := sampler.SampleQuery(context.Background(), shape)
		require.NoError(t, err)
	}
	require.Equal(t, 1, catalog.calls)
}
