package pick

import (
	"fmt"
	"time"
)

// Pick is one participant's team selection for one week. The store keeps at
// most one row per (participant, week) and one per (participant, team); a row
// is updated in place while its week is open and only removed by a full
// competition reset.
type Pick struct {
	ID            string
	ParticipantID string
	TeamID        string
	Week          int
	AutoAssigned  bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Pick) Validate() error {
	if p.ParticipantID == "" {
		return fmt.Errorf("pick participant id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("pick team id is required")
	}
	if p.Week < 1 {
		return fmt.Errorf("pick week must be >= 1")
	}

	return nil
}

// Latest returns the authoritative pick for a week when duplicates exist,
// preferring the most recent UpdatedAt. Duplicates cannot be created through
// the store constraints; this guards historical data imported from systems
// without them.
func Latest(picks []Pick, week int) (Pick, bool) {
	var (
		found bool
		best  Pick
	)
	for _, item := range picks {
		if item.Week != week {
			continue
		}
		if !found || item.UpdatedAt.After(best.UpdatedAt) {
			best = item
			found = true
		}
	}

	return best, found
}

// UsedTeamIDs collects every team the participant has picked in any week.
func UsedTeamIDs(picks []Pick) map[string]struct{} {
	out := make(map[string]struct{}, len(picks))
	for _, item := range picks {
		out[item.TeamID] = struct{}{}
	}

	return out
}
