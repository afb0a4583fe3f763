package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// ResultDraw is the winner value for a finished fixture with level scores.
const ResultDraw = "Draw"

// Fixture is one scheduled match as reported by the external schedule
// provider. Team fields carry provider display names, not catalog ids;
// reconciliation maps them back to the catalog.
type Fixture struct {
	ExternalID string
	Week       int
	HomeTeam   string
	AwayTeam   string
	HomeScore  *int
	AwayScore  *int
	Status     string
	KickoffAt  time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case "", "NOT STARTED", "NS":
		return StatusScheduled
	case "MATCH FINISHED", "FT", "AET", "PEN":
		return StatusFinished
	case "MATCH POSTPONED", "POST":
		return StatusPostponed
	case "MATCH CANCELLED", "CANC":
		return StatusCancelled
	default:
		return status
	}
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusFinished
}

// Winner returns the winning team's display name, ResultDraw for level
// scores, or false when the fixture has not finished or scores are missing.
func (f Fixture) Winner() (string, bool) {
	if !IsFinishedStatus(f.Status) {
		return "", false
	}
	if f.HomeScore == nil || f.AwayScore == nil {
		return "", false
	}

	switch {
	case *f.HomeScore > *f.AwayScore:
		return f.HomeTeam, true
	case *f.AwayScore > *f.HomeScore:
		return f.AwayTeam, true
	default:
		return ResultDraw, true
	}
}

// EarliestKickoff returns the earliest kickoff among the fixtures, or false
// when the slice is empty or no fixture carries a kickoff time.
func EarliestKickoff(fixtures []Fixture) (time.Time, bool) {
	var (
		found    bool
		earliest time.Time
	)
	for _, item := range fixtures {
		if item.KickoffAt.IsZero() {
			continue
		}
		if !found || item.KickoffAt.Before(earliest) {
			earliest = item.KickoffAt
			found = true
		}
	}

	return earliest, found
}
