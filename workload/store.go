package workload

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/amolj/index_alerter/utils"
)

// ErrNoStats is returned when no snapshot has been persisted for a workload id.
// It is distinct from a NO_ACTION recommendation: without a snapshot the
// alerter produces no recommendation at all.
var ErrNoStats = errors.New("no stats snapshot for this workload")

// Store persists snapshots and recommendations as JSON files, one per
// workload id, fully overwritten on each save.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at the given directory.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// StatsPath returns the snapshot file path for the given workload id.
func (s *Store) StatsPath(workloadID int) string {
	return path.Join(s.Dir, fmt.Sprintf("workload_%d_stats.json", workloadID))
}

// RecommendationPath returns the recommendation file path for the given workload id.
func (s *Store) RecommendationPath(workloadID int) string {
	return path.Join(s.Dir, fmt.Sprintf("workload_%d_alert.json", workloadID))
}

// SaveStats overwrites the snapshot for stats.WorkloadID.
func (s *Store) SaveStats(stats *Stats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := utils.SaveContentTo(s.StatsPath(stats.WorkloadID), string(data)); err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	return nil
}

// LoadStats loads the snapshot for the given workload id.
// A missing file is reported as ErrNoStats.
func (s *Store) LoadStats(workloadID int) (*Stats, error) {
	data, err := os.ReadFile(s.StatsPath(workloadID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStats
		}
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parsing stats: %w", err)
	}
	if stats.Queries == nil {
		stats.Queries = make(map[string]*QueryStats)
	}
	return &stats, nil
}

// SaveRecommendation overwrites the recommendation for rec.WorkloadID.
func (s *Store) SaveRecommendation(rec *Recommendation) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling recommendation: %w", err)
	}
	if err := utils.SaveContentTo(s.RecommendationPath(rec.WorkloadID), string(data)); err != nil {
		return fmt.Errorf("saving recommendation: %w", err)
	}
	return nil
}
