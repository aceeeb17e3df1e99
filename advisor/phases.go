package advisor

import (
	"fmt"
	"os"

	"github.com/amolj/index_alerter/utils"
	"gopkg.in/yaml.v3"
)

// Phase is one segment of a sampling run: a fixed list of representative
// queries replayed round-robin for the phase duration.
type Phase struct {
	Queries []string `yaml:"queries"`
}

type phasesFile struct {
	Phases [][]string `yaml:"phases"`
}

// LoadPhasesFile reads a YAML phase file:
//
//	phases:
//	  - - SELECT ...
//	    - SELECT ...
//	  - - SELECT ...
func LoadPhasesFile(path string) ([]Phase, error) {
	if exist, isDir := utils.FileExists(path); !exist || isDir {
		return nil, fmt.Errorf("phases file %v does not exist", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading phases file: %w", err)
	}
	var f phasesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing phases file: %w", err)
	}
	if len(f.Phases) == 0 {
		return nil, fmt.Errorf("phases file %v defines no phases", path)
	}
	phases := make([]Phase, 0, len(f.Phases))
	for i, queries := range f.Phases {
		if len(queries) == 0 {
			return nil, fmt.Errorf("phase %d defines no queries", i)
		}
		phases = append(phases, Phase{Queries: queries})
	}
	return phases, nil
}

// DefaultPhases returns the built-in phase catalogue of a workload profile.
// Each profile drifts its hot columns across phases to simulate a workload
// whose access pattern shifts over time. Unknown ids fall back to a generic
// profile.
func DefaultPhases(workloadID int) []Phase {
	switch workloadID {
	case 1:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 150000 AND o.o_shippriority = 1",
				"SELECT o.o_orderkey, o.o_totalprice FROM orders o WHERE o.o_totalprice BETWEEN 100000 AND 250000 AND o.o_shippriority IN (0, 1) AND o.o_shipmode = 'RAIL'",
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority = 2 AND o.o_shipmode = 'AIR' AND o.o_totalprice > 80000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 200000 AND o.o_shippriority > 0 AND o.o_shipmode = 'SHIP'",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shippriority = 1 AND o.o_shipmode IN ('TRUCK', 'RAIL') AND o.o_totalprice > 120000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_shippriority IN (0, 1, 2) AND o.o_shipmode = 'FOB'",
			}},
			{Queries: []string{
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_shippriority > 1 AND o.o_shipmode = 'HAND' AND o.o_totalprice > 100000",
				"SELECT o.o_orderkey, COUNT(*) FROM orders o WHERE o.o_totalprice BETWEEN 50000 AND 150000 AND o.o_shippriority = 1 GROUP BY o.o_orderkey",
				"SELECT COUNT(*) FROM orders o WHERE o.o_shipmode IN ('MAIL', 'TRUCK') AND o.o_totalprice > 180000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority IN (1, 2) AND o.o_shipmode = 'RAIL' AND o.o_totalprice > 200000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_totalprice BETWEEN 75000 AND 225000 AND o.o_shippriority > 0",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shipmode = 'AIR' AND o.o_totalprice > 160000 AND o.o_shippriority = 1",
			}},
		}
	case 2:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 150000 AND o.o_custkey > 1000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_totalprice BETWEEN 100000 AND 200000 AND o.o_shippriority > 0",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_custkey < 500 AND o.o_shipmode = 'SHIP'",
			}},
			{Queries: []string{
				"SELECT o.o_orderkey FROM orders o WHERE o.o_totalprice > 200000 AND o.o_shippriority IN (0, 1, 2)",
				"SELECT COUNT(*) FROM orders o WHERE o.o_custkey IN (100, 200, 300, 400, 500) AND o.o_totalprice > 50000",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_totalprice BETWEEN 50000 AND 100000 AND o.o_custkey > 1000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'RAIL' AND o.o_totalprice > 100000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shipmode IN ('AIR', 'SHIP') AND o.o_shippriority > 0",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_shipmode = 'TRUCK' AND o.o_custkey > 5000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'FOB' AND o.o_shippriority = 1 AND o.o_totalprice > 120000",
				"SELECT o.o_orderkey, o.o_totalprice FROM orders o WHERE o.o_shipmode IN ('MAIL', 'HAND') AND o.o_custkey < 3000",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_shippriority > 0 AND o.o_shipmode = 'RAIL'",
			}},
		}
	case 3:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_custkey = 100 AND o.o_totalprice > 50000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_custkey > 1000 AND o.o_custkey < 2000 AND o.o_shippriority > 0",
				"SELECT o.o_totalprice FROM orders o WHERE o.o_custkey IN (50, 100, 150, 200, 250) AND o.o_shipmode = 'AIR'",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_custkey = 500 AND o.o_shipmode IN ('SHIP', 'TRUCK')",
				"SELECT o.o_totalprice FROM orders o WHERE o.o_custkey > 5000 AND o.o_totalprice > 100000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_custkey BETWEEN 1000 AND 3000 AND o.o_shippriority > 0",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority > 0 AND o.o_shipmode = 'AIR' AND o.o_totalprice > 80000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shippriority IN (1, 2) AND o.o_shipmode = 'SHIP' AND o.o_custkey > 2000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_shippriority = 1 AND o.o_shipmode = 'TRUCK'",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority = 2 AND o.o_shipmode IN ('RAIL', 'HAND') AND o.o_totalprice > 100000",
				"SELECT o.o_orderkey, o.o_totalprice FROM orders o WHERE o.o_shippriority > 0 AND o.o_custkey < 8000",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_shipmode = 'FOB' AND o.o_shippriority > 1",
			}},
		}
	case 4:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 250000 AND o.o_shippriority > 0",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_totalprice BETWEEN 150000 AND 300000 AND o.o_custkey > 1000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_totalprice < 50000 AND o.o_shipmode = 'RAIL'",
			}},
			{Queries: []string{
				"SELECT o.o_orderkey, o.o_totalprice FROM orders o WHERE o.o_totalprice > 100000 AND o.o_custkey < 5000",
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice BETWEEN 200000 AND 400000 AND o.o_shippriority IN (0, 1, 2)",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_totalprice = 150000 AND o.o_shipmode = 'SHIP'",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority > 0 AND o.o_totalprice > 100000 AND o.o_shipmode IN ('RAIL', 'AIR')",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shippriority IN (1, 2) AND o.o_totalprice < 200000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_shippriority = 1 AND o.o_custkey > 2000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority > 0 AND o.o_shipmode = 'RAIL' AND o.o_totalprice > 80000",
				"SELECT o.o_totalprice FROM orders o WHERE o.o_shippriority = 0 AND o.o_custkey BETWEEN 1000 AND 5000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shipmode IN ('TRUCK', 'SHIP', 'AIR') AND o.o_totalprice > 100000",
			}},
		}
	case 5:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_custkey > 1000 AND o.o_totalprice > 100000 AND o.o_shippriority > 0",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_custkey = 500 AND o.o_totalprice < 150000",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_custkey BETWEEN 1000 AND 5000 AND o.o_shipmode = 'TRUCK'",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_custkey < 2000 AND o.o_totalprice > 50000",
				"SELECT o.o_totalprice FROM orders o WHERE o.o_custkey > 5000 AND o.o_shippriority IN (1, 2)",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_custkey IN (100, 200, 300, 400) AND o.o_totalprice BETWEEN 80000 AND 200000",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'SHIP' AND o.o_totalprice > 100000 AND o.o_custkey > 2000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shipmode IN ('AIR', 'TRUCK') AND o.o_totalprice < 200000",
				"SELECT AVG(o.o_totalprice) FROM orders o WHERE o.o_shipmode = 'MAIL' AND o.o_shippriority > 0",
			}},
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'RAIL' OR o.o_shipmode = 'FOB' AND o.o_totalprice > 120000",
				"SELECT o.o_orderkey, o.o_totalprice FROM orders o WHERE o.o_shipmode = 'HAND' AND o.o_totalprice > 150000",
				"SELECT SUM(o.o_totalprice) FROM orders o WHERE o.o_shipmode IN ('SHIP', 'AIR', 'TRUCK', 'RAIL') AND o.o_custkey < 8000",
			}},
		}
	default:
		return []Phase{
			{Queries: []string{
				"SELECT COUNT(*) FROM orders o WHERE o.o_shippriority > 0",
				"SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 100000",
				"SELECT o.o_orderkey FROM orders o WHERE o.o_shipmode = 'SHIP'",
			}},
		}
	}
}
