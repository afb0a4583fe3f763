package usecase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

type pickFixture struct {
	teams     *memory.TeamRepository
	picks     *memory.PickRepository
	winners   *memory.WinnerRepository
	deadlines *memory.DeadlineRepository
	svc       *usecase.PickService
	deadline  *usecase.DeadlineService
}

func newPickFixture(t *testing.T) *pickFixture {
	t.Helper()

	teams := memory.NewTeamRepository(memory.SeedTeams())
	picks := memory.NewPickRepository()
	winners := memory.NewWinnerRepository()
	deadlines := memory.NewDeadlineRepository()

	gen := id.NewRandomGenerator()
	deadlineSvc := usecase.NewDeadlineService(deadlines, gen, 38, fixedClock)
	svc := usecase.NewPickService(teams, picks, winners, deadlineSvc, gen, 38, fixedClock)

	return &pickFixture{
		teams:     teams,
		picks:     picks,
		winners:   winners,
		deadlines: deadlines,
		svc:       svc,
		deadline:  deadlineSvc,
	}
}

func TestPickService_SubmitAndReplace(t *testing.T) {
	fx := newPickFixture(t)

	created, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-ars")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if created.TeamID != "eng-ars" || created.Week != 1 {
		t.Fatalf("unexpected pick: %+v", created)
	}
	if created.AutoAssigned {
		t.Fatalf("manual submit flagged as auto-assigned")
	}

	replaced, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-che")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.ID != created.ID {
		t.Fatalf("replace created a second row for the week")
	}
	if replaced.TeamID != "eng-che" {
		t.Fatalf("unexpected team after replace: %s", replaced.TeamID)
	}

	all, err := fx.picks.ListAll(t.Context())
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected single pick row, got %d", len(all))
	}
}

func TestPickService_SubmitValidation(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "", 1, "eng-ars"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing participant, got %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-1", 0, "eng-ars"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for week 0, got %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-1", 39, "eng-ars"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for week 39, got %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "not-a-team"); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}
}

func TestPickService_SubmitRejectsLockedWeek(t *testing.T) {
	fx := newPickFixture(t)

	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d1", Week: 2, Time: testNow.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	_, err := fx.svc.Submit(t.Context(), "user-1", 2, "eng-ars")
	if !errors.Is(err, usecase.ErrDeadlineLocked) {
		t.Fatalf("expected ErrDeadlineLocked, got %v", err)
	}
	if errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("locked error must stay distinct from validation errors")
	}
}

func TestPickService_SubmitRejectsReusedTeam(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-ars"); err != nil {
		t.Fatalf("submit week 1: %v", err)
	}

	_, err := fx.svc.Submit(t.Context(), "user-1", 2, "eng-ars")
	if !errors.Is(err, usecase.ErrConflict) {
		t.Fatalf("expected ErrConflict for reused team, got %v", err)
	}

	// Another participant is free to pick the same team.
	if _, err := fx.svc.Submit(t.Context(), "user-2", 1, "eng-ars"); err != nil {
		t.Fatalf("submit for second participant: %v", err)
	}
}

func TestPickService_EnsurePickReturnsExisting(t *testing.T) {
	fx := newPickFixture(t)

	created, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-che")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got, assigned, err := fx.svc.EnsurePick(t.Context(), "user-1", 1)
	if err != nil {
		t.Fatalf("ensure pick: %v", err)
	}
	if assigned {
		t.Fatalf("existing pick reported as newly assigned")
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected pick: %+v", got)
	}
}

func TestPickService_EnsurePickAutoAssignsAlphabetically(t *testing.T) {
	fx := newPickFixture(t)

	got, assigned, err := fx.svc.EnsurePick(t.Context(), "user-1", 1)
	if err != nil {
		t.Fatalf("ensure pick: %v", err)
	}
	if !assigned {
		t.Fatalf("expected auto-assignment")
	}
	if got.TeamID != "eng-ars" {
		t.Fatalf("assigned team = %s, want eng-ars (Arsenal first by name)", got.TeamID)
	}
	if !got.AutoAssigned {
		t.Fatalf("auto-assigned pick not flagged")
	}

	// Arsenal is used now; the next assignment moves down the catalog.
	next, assigned, err := fx.svc.EnsurePick(t.Context(), "user-1", 2)
	if err != nil {
		t.Fatalf("ensure pick week 2: %v", err)
	}
	if !assigned || next.TeamID != "eng-avl" {
		t.Fatalf("assigned team = %s, want eng-avl (Aston Villa next)", next.TeamID)
	}
}

func TestPickService_EnsurePickCatalogExhausted(t *testing.T) {
	teams := memory.NewTeamRepository(memory.SeedTeams()[:2])
	picks := memory.NewPickRepository()
	winners := memory.NewWinnerRepository()
	deadlines := memory.NewDeadlineRepository()

	gen := id.NewRandomGenerator()
	deadlineSvc := usecase.NewDeadlineService(deadlines, gen, 38, fixedClock)
	svc := usecase.NewPickService(teams, picks, winners, deadlineSvc, gen, 38, fixedClock)

	for week := 1; week <= 2; week++ {
		if _, _, err := svc.EnsurePick(t.Context(), "user-1", week); err != nil {
			t.Fatalf("ensure pick week %d: %v", week, err)
		}
	}

	_, _, err := svc.EnsurePick(t.Context(), "user-1", 3)
	if !errors.Is(err, usecase.ErrCatalogExhausted) {
		t.Fatalf("expected ErrCatalogExhausted, got %v", err)
	}
}

func TestPickService_HistorySortedWithTeams(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "user-1", 2, "eng-che"); err != nil {
		t.Fatalf("submit week 2: %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-ars"); err != nil {
		t.Fatalf("submit week 1: %v", err)
	}

	views, err := fx.svc.History(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("unexpected history length: %d", len(views))
	}
	if views[0].Pick.Week != 1 || views[1].Pick.Week != 2 {
		t.Fatalf("history not sorted by week: %+v", views)
	}
	if views[0].Team.Name != "Arsenal" || views[1].Team.Name != "Chelsea" {
		t.Fatalf("team details missing: %+v", views)
	}
}

func TestPickService_StatusExplainsElimination(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-che"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := fx.winners.Create(t.Context(), winner.WeeklyWinner{ID: "w1", Week: 1, TeamID: "eng-ars"}); err != nil {
		t.Fatalf("seed winner: %v", err)
	}
	// Current week is derived from the highest deadline row.
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d2", Week: 2, Time: testNow.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	status, err := fx.svc.Status(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Status.Eliminated {
		t.Fatalf("expected eliminated, got %+v", status)
	}
	if status.Status.EliminatedWeek != 1 || status.Status.Reason != "lost" {
		t.Fatalf("unexpected verdict: %+v", status.Status)
	}
	if status.TeamName != "Chelsea" {
		t.Fatalf("losing team name = %q, want Chelsea", status.TeamName)
	}
}

func TestPickService_Standings(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-ars"); err != nil {
		t.Fatalf("submit user-1: %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-2", 1, "eng-che"); err != nil {
		t.Fatalf("submit user-2: %v", err)
	}
	if err := fx.winners.Create(t.Context(), winner.WeeklyWinner{ID: "w1", Week: 1, TeamID: "eng-ars"}); err != nil {
		t.Fatalf("seed winner: %v", err)
	}
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d2", Week: 2, Time: testNow.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	standings, err := fx.svc.Standings(t.Context())
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("unexpected standings length: %d", len(standings))
	}
	if standings[0].ParticipantID != "user-1" || standings[0].Status.Eliminated {
		t.Fatalf("unexpected user-1 standing: %+v", standings[0])
	}
	if standings[1].ParticipantID != "user-2" || !standings[1].Status.Eliminated {
		t.Fatalf("unexpected user-2 standing: %+v", standings[1])
	}
}

func TestPickService_EnsureCurrentPickAssignsOpenWeek(t *testing.T) {
	fx := newPickFixture(t)
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d1", Week: 1, Time: testNow.Add(time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	item, assigned, err := fx.svc.EnsureCurrentPick(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("ensure current pick: %v", err)
	}
	if !assigned || !item.AutoAssigned {
		t.Fatalf("expected auto-assignment before the deadline, got %+v (assigned=%v)", item, assigned)
	}
	if item.Week != 1 || item.TeamID != "eng-ars" {
		t.Fatalf("unexpected assignment: %+v", item)
	}
}

func TestPickService_EnsureCurrentPickLeavesLockedWeekAlone(t *testing.T) {
	fx := newPickFixture(t)
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d1", Week: 1, Time: testNow.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	item, assigned, err := fx.svc.EnsureCurrentPick(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("ensure current pick: %v", err)
	}
	if assigned || item.ID != "" {
		t.Fatalf("locked week must not be assigned: %+v", item)
	}

	all, err := fx.picks.ListAll(t.Context())
	if err != nil {
		t.Fatalf("list picks: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no pick rows, got %d", len(all))
	}
}

func TestPickService_SharedHistoryHidesOpenWeeks(t *testing.T) {
	fx := newPickFixture(t)

	if _, err := fx.svc.Submit(t.Context(), "user-1", 1, "eng-ars"); err != nil {
		t.Fatalf("submit user-1 week 1: %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-1", 2, "eng-che"); err != nil {
		t.Fatalf("submit user-1 week 2: %v", err)
	}
	if _, err := fx.svc.Submit(t.Context(), "user-2", 1, "eng-liv"); err != nil {
		t.Fatalf("submit user-2 week 1: %v", err)
	}
	// Week 1 has passed, week 2 is still open.
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d1", Week: 1, Time: testNow.Add(-time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}
	if err := fx.deadlines.Create(t.Context(), deadline.Deadline{ID: "d2", Week: 2, Time: testNow.Add(48 * time.Hour)}); err != nil {
		t.Fatalf("seed deadline: %v", err)
	}

	histories, err := fx.svc.SharedHistory(t.Context(), false)
	if err != nil {
		t.Fatalf("shared history: %v", err)
	}
	if len(histories) != 2 {
		t.Fatalf("unexpected participant count: %d", len(histories))
	}
	if len(histories[0].Picks) != 1 || histories[0].Picks[0].Pick.Week != 1 {
		t.Fatalf("open week leaked into shared history: %+v", histories[0].Picks)
	}

	full, err := fx.svc.SharedHistory(t.Context(), true)
	if err != nil {
		t.Fatalf("shared history with open weeks: %v", err)
	}
	if len(full[0].Picks) != 2 {
		t.Fatalf("expected both weeks for admin view, got %+v", full[0].Picks)
	}
}
