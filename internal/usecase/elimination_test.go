package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
)

func pickFor(participantID, teamID string, week int) pick.Pick {
	return pick.Pick{
		ID:            participantID + "-" + teamID,
		ParticipantID: participantID,
		TeamID:        teamID,
		Week:          week,
		CreatedAt:     time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func winnerFor(teamID string, week int) winner.WeeklyWinner {
	return winner.WeeklyWinner{ID: "w-" + teamID, Week: week, TeamID: teamID}
}

func TestEvaluateElimination_WeekOneNeverEliminates(t *testing.T) {
	picks := []pick.Pick{pickFor("u1", "t1", 1)}
	winners := []winner.WeeklyWinner{winnerFor("t9", 1)}

	status := EvaluateElimination(picks, winners, 1)
	if status.Eliminated {
		t.Fatalf("expected not eliminated at asOfWeek=1, got %+v", status)
	}

	status = EvaluateElimination(nil, winners, 0)
	if status.Eliminated {
		t.Fatalf("expected not eliminated at asOfWeek=0, got %+v", status)
	}
}

func TestEvaluateElimination_LosingPick(t *testing.T) {
	picks := []pick.Pick{
		pickFor("u1", "t1", 1),
		pickFor("u1", "t2", 2),
	}
	winners := []winner.WeeklyWinner{
		winnerFor("t1", 1),
		winnerFor("t3", 2),
	}

	status := EvaluateElimination(picks, winners, 3)
	if !status.Eliminated {
		t.Fatalf("expected eliminated, got %+v", status)
	}
	if status.EliminatedWeek != 2 {
		t.Fatalf("eliminated week = %d, want 2", status.EliminatedWeek)
	}
	if status.Reason != EliminationReasonLost {
		t.Fatalf("reason = %q, want %q", status.Reason, EliminationReasonLost)
	}
	if status.TeamID != "t2" {
		t.Fatalf("team id = %q, want t2", status.TeamID)
	}
}

func TestEvaluateElimination_SkipsUnadjudicatedWeek(t *testing.T) {
	picks := []pick.Pick{
		pickFor("u1", "t1", 1),
		pickFor("u1", "t2", 2),
	}
	winners := []winner.WeeklyWinner{winnerFor("t1", 1)}

	status := EvaluateElimination(picks, winners, 3)
	if status.Eliminated {
		t.Fatalf("expected week 2 skipped without winner rows, got %+v", status)
	}

	// The skip must hold whether or not the participant picked that week.
	withoutWeekTwo := []pick.Pick{pickFor("u1", "t1", 1)}
	status = EvaluateElimination(withoutWeekTwo, winners, 3)
	if status.Eliminated {
		t.Fatalf("expected identical outcome without a week 2 pick, got %+v", status)
	}
}

func TestEvaluateElimination_NoPick(t *testing.T) {
	picks := []pick.Pick{
		pickFor("u1", "t1", 1),
		pickFor("u1", "t2", 2),
	}
	winners := []winner.WeeklyWinner{
		winnerFor("t1", 1),
		winnerFor("t2", 2),
		winnerFor("t5", 3),
	}

	status := EvaluateElimination(picks, winners, 4)
	if !status.Eliminated {
		t.Fatalf("expected eliminated, got %+v", status)
	}
	if status.EliminatedWeek != 3 {
		t.Fatalf("eliminated week = %d, want 3", status.EliminatedWeek)
	}
	if status.Reason != EliminationReasonNoPick {
		t.Fatalf("reason = %q, want %q", status.Reason, EliminationReasonNoPick)
	}
	if status.TeamID != "" {
		t.Fatalf("team id = %q, want empty for no-pick", status.TeamID)
	}
}

func TestEvaluateElimination_FirstFailureWins(t *testing.T) {
	picks := []pick.Pick{
		pickFor("u1", "t1", 1),
		pickFor("u1", "t2", 3),
	}
	winners := []winner.WeeklyWinner{
		winnerFor("t9", 1),
		winnerFor("t9", 3),
	}

	status := EvaluateElimination(picks, winners, 5)
	if !status.Eliminated || status.EliminatedWeek != 1 {
		t.Fatalf("expected elimination reported for week 1, got %+v", status)
	}
	if status.Reason != EliminationReasonLost {
		t.Fatalf("reason = %q, want %q", status.Reason, EliminationReasonLost)
	}
}

func TestEvaluateElimination_SurvivorAcrossAdjudicatedWeeks(t *testing.T) {
	picks := []pick.Pick{
		pickFor("u1", "t1", 1),
		pickFor("u1", "t2", 2),
		pickFor("u1", "t3", 3),
	}
	winners := []winner.WeeklyWinner{
		winnerFor("t1", 1),
		winnerFor("t4", 1),
		winnerFor("t2", 2),
		winnerFor("t3", 3),
	}

	status := EvaluateElimination(picks, winners, 4)
	if status.Eliminated {
		t.Fatalf("expected survivor, got %+v", status)
	}
}

func TestEvaluateElimination_DuplicatePicksLatestWins(t *testing.T) {
	stale := pickFor("u1", "t-losing", 1)
	stale.UpdatedAt = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	fresh := pickFor("u1", "t-winning", 1)
	fresh.UpdatedAt = time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC)

	winners := []winner.WeeklyWinner{winnerFor("t-winning", 1)}

	status := EvaluateElimination([]pick.Pick{stale, fresh}, winners, 2)
	if status.Eliminated {
		t.Fatalf("expected latest pick to be authoritative, got %+v", status)
	}
}
