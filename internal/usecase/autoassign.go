package usecase

import (
	"fmt"

	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/team"
)

// ResolveAutoAssign selects the pick for a participant who failed to choose.
// The catalog is ordered by display name, case-sensitive ascending, and the
// first team the participant has never used wins. Selection is pure; the
// caller persists the resulting pick and owns the create race.
func ResolveAutoAssign(catalog []team.Team, participantPicks []pick.Pick) (team.Team, error) {
	used := pick.UsedTeamIDs(participantPicks)
	for _, candidate := range team.SortByName(catalog) {
		if _, taken := used[candidate.ID]; taken {
			continue
		}
		return candidate, nil
	}

	return team.Team{}, fmt.Errorf("%w: no unused team left in a catalog of %d", ErrCatalogExhausted, len(catalog))
}
