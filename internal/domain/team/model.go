package team

import (
	"fmt"
	"sort"
)

// Team is one club eligible for picking. The catalog is small, fully loaded
// into memory, and immutable once the competition starts.
type Team struct {
	ID    string
	Name  string
	Short string
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Short == "" {
		return fmt.Errorf("team short name is required")
	}

	return nil
}

// SortByName returns a copy ordered by display name, case-sensitive ascending.
// Auto-assignment depends on this ordering being stable across catalog loads.
func SortByName(teams []Team) []Team {
	out := append([]Team(nil), teams...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out
}
