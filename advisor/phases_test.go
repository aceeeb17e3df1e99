package advisor

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPhases(t *testing.T) {
	for id := 1; id <= 5; id++ {
		phases := DefaultPhases(id)
		require.Len(t, phases, 4, "workload %d", id)
		for num, phase := range phases {
			require.Len(t, phase.Queries, 3, "workload %d phase %d", id, num)
			for _, query := range phase.Queries {
				require.True(t, NewQueryShape(query).Indexable(), "workload %d phase %d: %q", id, num, query)
			}
		}
	}

	fallback := DefaultPhases(99)
	require.Len(t, fallback, 1)
	require.Len(t, fallback[0].Queries, 3)
}

func TestLoadPhasesFile(t *testing.T) {
	content := `phases:
  - - SELECT COUNT(*) FROM orders o WHERE o.o_totalprice > 100
    - SELECT o.o_orderkey FROM orders o WHERE o.o_custkey > 5
  - - SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'RAIL'
`
	file := path.Join(t.TempDir(), "phases.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	phases, err := LoadPhasesFile(file)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	require.Len(t, phases[0].Queries, 2)
	require.Len(t, phases[1].Queries, 1)
	require.Equal(t, "SELECT COUNT(*) FROM orders o WHERE o.o_shipmode = 'RAIL'", phases[1].Queries[0])
}

func TestLoadPhasesFileRejectsEmpty(t *testing.T) {
	dir := t.TempDir()

	empty := path.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("phases: []\n"), 0644))
	_, err := LoadPhasesFile(empty)
	require.Error(t, err)

	hollow := path.Join(dir, "hollow.yaml")
	require.NoError(t, os.WriteFile(hollow, []byte("phases:\n  - []\n"), 0644))
	_, err = LoadPhasesFile(hollow)
	require.Error(t, err)

	_, err = LoadPhasesFile(path.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
