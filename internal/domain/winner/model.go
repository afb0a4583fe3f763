package winner

import "fmt"

// WeeklyWinner records that a team won its fixture in a given week. A week
// with no rows at all was never adjudicated, which is different from every
// team losing (impossible: each fixture produces a winner or a draw).
type WeeklyWinner struct {
	ID     string
	Week   int
	TeamID string
}

func (w WeeklyWinner) Validate() error {
	if w.Week < 1 {
		return fmt.Errorf("winner week must be >= 1")
	}
	if w.TeamID == "" {
		return fmt.Errorf("winner team id is required")
	}

	return nil
}

// ByWeek indexes winning team ids per week.
func ByWeek(items []WeeklyWinner) map[int]map[string]struct{} {
	out := make(map[int]map[string]struct{})
	for _, item := range items {
		set, ok := out[item.Week]
		if !ok {
			set = make(map[string]struct{})
			out[item.Week] = set
		}
		set[item.TeamID] = struct{}{}
	}

	return out
}
