package usecase

import (
	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
)

const (
	EliminationReasonNoPick = "no-pick"
	EliminationReasonLost   = "lost"
)

// EliminationStatus is derived on demand from pick and winner history. It is
// never persisted, so correcting historical winner rows immediately corrects
// every participant's status.
type EliminationStatus struct {
	Eliminated     bool
	EliminatedWeek int
	Reason         string
	TeamID         string
}

// EvaluateElimination judges a participant against every adjudicated week
// strictly before asOfWeek, in ascending order. A week with no winner rows
// was never adjudicated and is skipped. The first week with a missing pick or
// a pick outside that week's winner set eliminates the participant; later
// weeks are not scanned. asOfWeek <= 1 can never eliminate because week 1 has
// no prior week to have failed.
//
// Pure and side-effect free; safe to call repeatedly and concurrently.
func EvaluateElimination(picks []pick.Pick, winners []winner.WeeklyWinner, asOfWeek int) EliminationStatus {
	if asOfWeek <= 1 {
		return EliminationStatus{}
	}

	winnersByWeek := winner.ByWeek(winners)
	for week := 1; week < asOfWeek; week++ {
		winnersW, adjudicated := winnersByWeek[week]
		if !adjudicated || len(winnersW) == 0 {
			continue
		}

		weekPick, found := pick.Latest(picks, week)
		if !found {
			return EliminationStatus{
				Eliminated:     true,
				EliminatedWeek: week,
				Reason:         EliminationReasonNoPick,
			}
		}
		if _, won := winnersW[weekPick.TeamID]; !won {
			return EliminationStatus{
				Eliminated:     true,
				EliminatedWeek: week,
				Reason:         EliminationReasonLost,
				TeamID:         weekPick.TeamID,
			}
		}
	}

	return EliminationStatus{}
}
