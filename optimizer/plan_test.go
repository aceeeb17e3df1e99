package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleExplainJSON = `[
  {
    "Plan": {
      "Node Type": "Aggregate",
      "Startup Cost": 1500.10,
      "Total Cost": 1500.11,
      "Plan Rows": 1,
      "Plans": [
        {
          "Node Type": "Index Scan",
          "Index Name": "<13542>btree_orders_o_totalprice",
          "Relation Name": "orders",
          "Alias": "o",
          "Startup Cost": 0.04,
          "Total Cost": 1480.25,
          "Plan Rows": 7943,
          "Index Cond": "(o.o_totalprice > 150000)"
        }
      ]
    }
  }
]`

func TestParseExplainOutput(t *testing.T) {
	out, err := ParseExplainOutput([]byte(sampleExplainJSON))
	require.NoError(t, err)
	require.Equal(t, "Aggregate", out.Plan.NodeType)
	require.Equal(t, 1500.11, out.PlanCost())
	require.Equal(t, []string{"<13542>btree_orders_o_totalprice"}, out.IndexNames())

	require.True(t, out.UsesIndex("<13542>btree_orders_o_totalprice"))
	require.False(t, out.UsesIndex("<13543>btree_orders_o_custkey"))
	require.False(t, out.UsesIndex(""))
}

func TestParseExplainOutputRawFallback(t *testing.T) {
	// Index names can surface in unmapped fields (e.g. output column lists
	// under VERBOSE); the raw text is the fallback.
	doc := `[{"Plan": {"Node Type": "Seq Scan", "Total Cost": 10.5,
		"Output": ["<13600>btree_orders_o_custkey"]}}]`
	out, err := ParseExplainOutput([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, out.IndexNames())
	require.True(t, out.UsesIndex("<13600>btree_orders_o_custkey"))
}

func TestParseExplainOutputEmpty(t *testing.T) {
	_, err := ParseExplainOutput([]byte(`[]`))
	require.Error(t, err)
	_, err = ParseExplainOutput([]byte(`not json`))
	require.Error(t, err)
}
