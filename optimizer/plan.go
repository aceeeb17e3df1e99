package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlanNode is one node of a Postgres EXPLAIN (FORMAT JSON) plan tree.
// Only the fields the advisor inspects are mapped.
type PlanNode struct {
	NodeType     string  `json:"Node Type"`
	StartupCost  float64 `json:"Startup Cost"`
	TotalCost    float64 `json:"Total Cost"`
	PlanRows     int64   `json:"Plan Rows"`
	RelationName string  `json:"Relation Name,omitempty"`
	Alias        string  `json:"Alias,omitempty"`
	IndexName    string  `json:"Index Name,omitempty"`
	IndexCond    string  `json:"Index Cond,omitempty"`
	Filter       string  `json:"Filter,omitempty"`

	Plans []PlanNode `json:"Plans,omitempty"`
}

// ExplainOutput is the top-level EXPLAIN (FORMAT JSON) document plus the raw
// text it was parsed from. The raw text is kept because hypothetical index
// names can surface in fields the typed model does not map.
type ExplainOutput struct {
	Plan PlanNode `json:"Plan"`

	raw string
}

// ParseExplainOutput parses the JSON document returned by
// EXPLAIN (FORMAT JSON): a single-element array wrapping the plan.
func ParseExplainOutput(data []byte) (ExplainOutput, error) {
	var docs []ExplainOutput
	if err := json.Unmarshal(data, &docs); err != nil {
		return ExplainOutput{}, fmt.Errorf("parsing explain output: %w", err)
	}
	if len(docs) == 0 {
		return ExplainOutput{}, fmt.Errorf("empty explain output")
	}
	out := docs[0]
	out.raw = string(data)
	return out, nil
}

// PlanCost returns the planner's total cost estimate of the plan root.
func (e ExplainOutput) PlanCost() float64 {
	return e.Plan.TotalCost
}

// IndexNames returns the names of all indexes referenced by plan nodes.
func (e ExplainOutput) IndexNames() []string {
	var names []string
	e.Plan.walk(func(n *PlanNode) {
		if n.IndexName != "" {
			names = append(names, n.IndexName)
		}
	})
	return names
}

// UsesIndex reports whether the plan references the given index name,
// falling back to the raw text for names the typed model misses.
func (e ExplainOutput) UsesIndex(name string) bool {
	if name == "" {
		return false
	}
	for _, n := range e.IndexNames() {
		if n == name {
			return true
		}
	}
	return strings.Contains(e.raw, name)
}

func (n *PlanNode) walk(visit func(*PlanNode)) {
	visit(n)
	for i := range n.Plans {
		n.Plans[i].walk(visit)
	}
}
