package statsource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

type rowKey struct {
	player string
	season int
	week   int
}

type teamKey struct {
	team   string
	season int
	week   int
}

// MemorySource is an in-process Store.
type MemorySource struct {
	mu    sync.RWMutex
	rows  map[rowKey]model.RawStatRow
	teams map[teamKey]model.TeamWeekRow
}

var _ Store = (*MemorySource)(nil)

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		rows:  make(map[rowKey]model.RawStatRow),
		teams: make(map[teamKey]model.TeamWeekRow),
	}
}

// PutRows implements Writer. The batch is validated in full before any row
// is recorded.
func (s *MemorySource) PutRows(_ context.Context, rows []model.RawStatRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := make(map[rowKey]model.RawStatRow, len(rows))
	for _, r := range rows {
		if err := validateRow(r); err != nil {
			return err
		}
		k := rowKey{r.PlayerID, r.Season, r.Week}
		old, ok := staged[k]
		if !ok {
			old, ok = s.rows[k]
		}
		if ok && !sameRow(old, r) {
			return fmt.Errorf("%w: %s %d week %d", ErrRowConflict, r.PlayerID, r.Season, r.Week)
		}
		staged[k] = r
	}
	for k, r := range staged {
		r.Stats = cloneStats(r.Stats)
		s.rows[k] = r
	}
	return nil
}

// PutTeamWeeks implements Writer.
func (s *MemorySource) PutTeamWeeks(_ context.Context, rows []model.TeamWeekRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := make(map[teamKey]model.TeamWeekRow, len(rows))
	for _, r := range rows {
		if err := validateTeamWeek(r); err != nil {
			return err
		}
		k := teamKey{r.Team, r.Season, r.Week}
		old, ok := staged[k]
		if !ok {
			old, ok = s.teams[k]
		}
		if ok && !statsEqual(old.Stats, r.Stats) {
			return fmt.Errorf("%w: team %s %d week %d", ErrRowConflict, r.Team, r.Season, r.Week)
		}
		staged[k] = r
	}
	for k, r := range staged {
		r.Stats = cloneStats(r.Stats)
		s.teams[k] = r
	}
	return nil
}

// Players implements Source. The reference comes from the player's latest
// row in the season.
func (s *MemorySource) Players(_ context.Context, season int) ([]model.PlayerRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := map[string]model.RawStatRow{}
	for k, r := range s.rows {
		if k.season != season {
			continue
		}
		if cur, ok := latest[k.player]; !ok || r.Week > cur.Week {
			latest[k.player] = r
		}
	}
	out := make([]model.PlayerRef, 0, len(latest))
	for _, r := range latest {
		out = append(out, model.PlayerRef{PlayerID: r.PlayerID, Name: r.Name, Team: r.Team, Position: r.Position})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

// PlayerRows implements Source.
func (s *MemorySource) PlayerRows(_ context.Context, playerID string, season int) ([]model.RawStatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.RawStatRow
	for k, r := range s.rows {
		if k.player == playerID && k.season == season {
			r.Stats = cloneStats(r.Stats)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })
	return out, nil
}

// TeamWeeks implements Source.
func (s *MemorySource) TeamWeeks(_ context.Context, season int) ([]model.TeamWeekRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TeamWeekRow
	for k, r := range s.teams {
		if k.season == season {
			r.Stats = cloneStats(r.Stats)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Week < out[j].Week
	})
	return out, nil
}

func cloneStats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
