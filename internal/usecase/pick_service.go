package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
)

type PickView struct {
	Pick pick.Pick
	Team team.Team
}

type ParticipantHistory struct {
	ParticipantID string
	Picks         []PickView
}

// ParticipantStatus joins the derived elimination verdict with the display
// name of the team that caused it, so callers can explain the exact week and
// pick instead of a generic "you are out".
type ParticipantStatus struct {
	ParticipantID string
	AsOfWeek      int
	Status        EliminationStatus
	TeamName      string
}

type PickService struct {
	teamRepo   team.Repository
	pickRepo   pick.Repository
	winnerRepo winner.Repository
	deadlines  *DeadlineService
	idGen      id.Generator
	maxWeek    int
	now        func() time.Time
}

func NewPickService(
	teamRepo team.Repository,
	pickRepo pick.Repository,
	winnerRepo winner.Repository,
	deadlines *DeadlineService,
	idGen id.Generator,
	maxWeek int,
	now func() time.Time,
) *PickService {
	if now == nil {
		now = time.Now
	}
	return &PickService{
		teamRepo:   teamRepo,
		pickRepo:   pickRepo,
		winnerRepo: winnerRepo,
		deadlines:  deadlines,
		idGen:      idGen,
		maxWeek:    maxWeek,
		now:        now,
	}
}

// Submit records or replaces the participant's pick for a week. The deadline
// gate is checked here regardless of any client-side disabling, and each team
// may be picked at most once per participant across the whole competition.
func (s *PickService) Submit(ctx context.Context, participantID string, week int, teamID string) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.Submit")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	teamID = strings.TrimSpace(teamID)
	if participantID == "" {
		return pick.Pick{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}
	if teamID == "" {
		return pick.Pick{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if week < 1 || week > s.maxWeek {
		return pick.Pick{}, fmt.Errorf("%w: week must be between 1 and %d", ErrInvalidInput, s.maxWeek)
	}

	gate, err := s.deadlines.GateForWeek(ctx, week)
	if err != nil {
		return pick.Pick{}, err
	}
	if gate.Locked {
		return pick.Pick{}, fmt.Errorf("%w: week %d is %s", ErrDeadlineLocked, week, gate.State)
	}

	if _, exists, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return pick.Pick{}, fmt.Errorf("get team: %w", err)
	} else if !exists {
		return pick.Pick{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	picks, err := s.pickRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list picks: %w", err)
	}
	for _, item := range picks {
		if item.Week != week && item.TeamID == teamID {
			return pick.Pick{}, fmt.Errorf("%w: team=%s already picked in week %d", ErrConflict, teamID, item.Week)
		}
	}

	if existing, found := pick.Latest(picks, week); found {
		existing.TeamID = teamID
		existing.AutoAssigned = false
		existing.UpdatedAt = s.now()
		if err := s.pickRepo.Update(ctx, existing); err != nil {
			return pick.Pick{}, fmt.Errorf("update pick: %w", err)
		}
		return existing, nil
	}

	item, err := s.createPick(ctx, participantID, week, teamID, false)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, ErrConflict) {
		return pick.Pick{}, err
	}

	// A concurrent call created the week row first; adopt it and apply the
	// requested team.
	current, found, getErr := s.pickRepo.GetByParticipantAndWeek(ctx, participantID, week)
	if getErr != nil {
		return pick.Pick{}, fmt.Errorf("reload pick after conflict: %w", getErr)
	}
	if !found {
		return pick.Pick{}, err
	}
	current.TeamID = teamID
	current.AutoAssigned = false
	current.UpdatedAt = s.now()
	if err := s.pickRepo.Update(ctx, current); err != nil {
		return pick.Pick{}, fmt.Errorf("update pick after conflict: %w", err)
	}

	return current, nil
}

// EnsurePick returns the participant's pick for the week, auto-assigning one
// when none exists. The returned bool reports whether an assignment was made
// by this call. Exhausting the catalog is surfaced, never swallowed.
func (s *PickService) EnsurePick(ctx context.Context, participantID string, week int) (pick.Pick, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.EnsurePick")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return pick.Pick{}, false, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}
	if week < 1 || week > s.maxWeek {
		return pick.Pick{}, false, fmt.Errorf("%w: week must be between 1 and %d", ErrInvalidInput, s.maxWeek)
	}

	if existing, found, err := s.pickRepo.GetByParticipantAndWeek(ctx, participantID, week); err != nil {
		return pick.Pick{}, false, fmt.Errorf("get pick: %w", err)
	} else if found {
		return existing, false, nil
	}

	catalog, err := s.teamRepo.List(ctx)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("list teams: %w", err)
	}
	picks, err := s.pickRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("list picks: %w", err)
	}

	candidate, err := ResolveAutoAssign(catalog, picks)
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("participant=%s week=%d: %w", participantID, week, err)
	}

	item, err := s.createPick(ctx, participantID, week, candidate.ID, true)
	if err == nil {
		return item, true, nil
	}
	if !errors.Is(err, ErrConflict) {
		return pick.Pick{}, false, err
	}

	// Lost the create race; whoever won holds the authoritative row.
	current, found, getErr := s.pickRepo.GetByParticipantAndWeek(ctx, participantID, week)
	if getErr != nil {
		return pick.Pick{}, false, fmt.Errorf("reload pick after conflict: %w", getErr)
	}
	if !found {
		return pick.Pick{}, false, err
	}

	return current, false, nil
}

// EnsureCurrentPick auto-assigns a pick for the current week when the
// participant has none and the week's deadline has not passed. Viewing picks
// triggers it, so a participant who never chooses still holds a pick before
// the cut-off. Once the week is locked nothing is assigned; a missing pick
// then counts against the participant at settlement.
func (s *PickService) EnsureCurrentPick(ctx context.Context, participantID string) (pick.Pick, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.EnsureCurrentPick")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return pick.Pick{}, false, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	week, err := s.deadlines.CurrentWeek(ctx)
	if err != nil {
		return pick.Pick{}, false, err
	}
	gate, err := s.deadlines.GateForWeek(ctx, week)
	if err != nil {
		return pick.Pick{}, false, err
	}
	if gate.Locked {
		existing, found, err := s.pickRepo.GetByParticipantAndWeek(ctx, participantID, week)
		if err != nil {
			return pick.Pick{}, false, fmt.Errorf("get pick: %w", err)
		}
		if !found {
			return pick.Pick{}, false, nil
		}
		return existing, false, nil
	}

	return s.EnsurePick(ctx, participantID, week)
}

func (s *PickService) createPick(ctx context.Context, participantID string, week int, teamID string, auto bool) (pick.Pick, error) {
	newID, err := s.idGen.NewID()
	if err != nil {
		return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
	}

	now := s.now()
	item := pick.Pick{
		ID:            newID,
		ParticipantID: participantID,
		TeamID:        teamID,
		Week:          week,
		AutoAssigned:  auto,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := item.Validate(); err != nil {
		return pick.Pick{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.pickRepo.Create(ctx, item); err != nil {
		return pick.Pick{}, fmt.Errorf("create pick: %w", err)
	}

	return item, nil
}

// History lists the participant's picks in week order with team details.
func (s *PickService) History(ctx context.Context, participantID string) ([]PickView, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.History")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	picks, err := s.pickRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	return s.toViews(ctx, picks)
}

// AllHistory lists every tracked participant's picks, for the admin overview.
func (s *PickService) AllHistory(ctx context.Context) ([]ParticipantHistory, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.AllHistory")
	defer span.End()

	picks, err := s.pickRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list picks: %w", err)
	}

	byParticipant := make(map[string][]pick.Pick)
	for _, item := range picks {
		byParticipant[item.ParticipantID] = append(byParticipant[item.ParticipantID], item)
	}

	ids := make([]string, 0, len(byParticipant))
	for participantID := range byParticipant {
		ids = append(ids, participantID)
	}
	sort.Strings(ids)

	out := make([]ParticipantHistory, 0, len(ids))
	for _, participantID := range ids {
		views, err := s.toViews(ctx, byParticipant[participantID])
		if err != nil {
			return nil, err
		}
		out = append(out, ParticipantHistory{
			ParticipantID: participantID,
			Picks:         views,
		})
	}

	return out, nil
}

// SharedHistory lists every participant's picks for weeks strictly before
// the first open week, so players cannot read each other's picks while a week
// can still be changed. Admin callers pass includeOpen to see everything.
func (s *PickService) SharedHistory(ctx context.Context, includeOpen bool) ([]ParticipantHistory, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.SharedHistory")
	defer span.End()

	histories, err := s.AllHistory(ctx)
	if err != nil {
		return nil, err
	}
	if includeOpen {
		return histories, nil
	}

	week, err := s.deadlines.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	gate, err := s.deadlines.GateForWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	firstOpen := week
	if gate.Locked {
		firstOpen = week + 1
	}

	out := make([]ParticipantHistory, 0, len(histories))
	for _, history := range histories {
		views := make([]PickView, 0, len(history.Picks))
		for _, view := range history.Picks {
			if view.Pick.Week < firstOpen {
				views = append(views, view)
			}
		}
		out = append(out, ParticipantHistory{
			ParticipantID: history.ParticipantID,
			Picks:         views,
		})
	}

	return out, nil
}

// Status derives the participant's elimination state as of the current week.
func (s *PickService) Status(ctx context.Context, participantID string) (ParticipantStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.Status")
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return ParticipantStatus{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	asOfWeek, err := s.deadlines.CurrentWeek(ctx)
	if err != nil {
		return ParticipantStatus{}, err
	}

	winners, err := s.winnerRepo.List(ctx)
	if err != nil {
		return ParticipantStatus{}, fmt.Errorf("list winners: %w", err)
	}

	return s.statusFor(ctx, participantID, asOfWeek, winners)
}

// Standings derives every tracked participant's elimination state.
func (s *PickService) Standings(ctx context.Context) ([]ParticipantStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "PickService.Standings")
	defer span.End()

	asOfWeek, err := s.deadlines.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}

	participantIDs, err := s.pickRepo.ParticipantIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	winners, err := s.winnerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}

	out := make([]ParticipantStatus, 0, len(participantIDs))
	for _, participantID := range participantIDs {
		status, err := s.statusFor(ctx, participantID, asOfWeek, winners)
		if err != nil {
			return nil, err
		}
		out = append(out, status)
	}

	return out, nil
}

func (s *PickService) statusFor(ctx context.Context, participantID string, asOfWeek int, winners []winner.WeeklyWinner) (ParticipantStatus, error) {
	picks, err := s.pickRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return ParticipantStatus{}, fmt.Errorf("list picks: %w", err)
	}

	status := EvaluateElimination(picks, winners, asOfWeek)
	out := ParticipantStatus{
		ParticipantID: participantID,
		AsOfWeek:      asOfWeek,
		Status:        status,
	}
	if status.TeamID != "" {
		item, exists, err := s.teamRepo.GetByID(ctx, status.TeamID)
		if err != nil {
			return ParticipantStatus{}, fmt.Errorf("get team: %w", err)
		}
		if exists {
			out.TeamName = item.Name
		}
	}

	return out, nil
}

func (s *PickService) toViews(ctx context.Context, picks []pick.Pick) ([]PickView, error) {
	sort.Slice(picks, func(i, j int) bool { return picks[i].Week < picks[j].Week })

	out := make([]PickView, 0, len(picks))
	for _, item := range picks {
		teamItem, _, err := s.teamRepo.GetByID(ctx, item.TeamID)
		if err != nil {
			return nil, fmt.Errorf("get team: %w", err)
		}
		out = append(out, PickView{
			Pick: item,
			Team: teamItem,
		})
	}

	return out, nil
}
