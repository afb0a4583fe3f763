package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/domain/fixture"
	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
	"github.com/riskibarqy/last-man-standing/internal/platform/logging"
)

const (
	DeadlineSourceSchedule = "schedule"
	DeadlineSourceFallback = "fallback"
)

// ScheduleSource is the external fixture schedule and results provider.
type ScheduleSource interface {
	FixturesByWeek(ctx context.Context, week int) ([]fixture.Fixture, error)
	CurrentWeek(ctx context.Context) (int, bool, error)
}

type SettlementOptions struct {
	DeadlineLead    time.Duration
	FallbackDelay   time.Duration
	FallbackHour    int
	ScheduleTimeout time.Duration
	Workers         int
	MaxWeek         int
}

// WinnerPrefill is the best-effort winner set derived from external results.
// Draws produce no winner and reconciliation failures land in Unmatched for
// manual confirmation; neither is silently dropped from the admin's view.
type WinnerPrefill struct {
	Week      int
	TeamIDs   []string
	Unmatched []string
}

type SettlementResult struct {
	Week               int
	Winners            []winner.WeeklyWinner
	Participants       int
	MissedPicks        int
	Eliminated         int
	NextWeek           int
	NextDeadline       deadline.Deadline
	NextDeadlineExists bool
	DeadlineSource     string
}

type ResetResult struct {
	StartWeek      int
	Deadline       deadline.Deadline
	DeadlineSource string
}

// SettlementService drives the week transition: winners in, eliminations
// recomputed, next week's deadline out. It holds no state between calls and
// every step tolerates re-runs.
type SettlementService struct {
	teamRepo     team.Repository
	winnerRepo   winner.Repository
	deadlineRepo deadline.Repository
	picks        *PickService
	deadlines    *DeadlineService
	schedule     ScheduleSource
	resolver     *NameResolver
	idGen        id.Generator
	logger       *logging.Logger
	opts         SettlementOptions
	now          func() time.Time
}

func NewSettlementService(
	teamRepo team.Repository,
	winnerRepo winner.Repository,
	deadlineRepo deadline.Repository,
	picks *PickService,
	deadlines *DeadlineService,
	schedule ScheduleSource,
	resolver *NameResolver,
	idGen id.Generator,
	logger *logging.Logger,
	opts SettlementOptions,
	now func() time.Time,
) *SettlementService {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ScheduleTimeout <= 0 {
		opts.ScheduleTimeout = 10 * time.Second
	}
	return &SettlementService{
		teamRepo:     teamRepo,
		winnerRepo:   winnerRepo,
		deadlineRepo: deadlineRepo,
		picks:        picks,
		deadlines:    deadlines,
		schedule:     schedule,
		resolver:     resolver,
		idGen:        idGen,
		logger:       logger,
		opts:         opts,
		now:          now,
	}
}

func (s *SettlementService) validateWeek(week int) error {
	if week < 1 || week > s.opts.MaxWeek {
		return fmt.Errorf("%w: week must be between 1 and %d", ErrInvalidInput, s.opts.MaxWeek)
	}
	return nil
}

// DeclareWinners persists the winner rows for a week. An empty set is
// invalid: zero winners means the week has not been settled, not that every
// pick lost. Re-declaring an existing winner is a no-op.
func (s *SettlementService) DeclareWinners(ctx context.Context, week int, teamIDs []string) ([]winner.WeeklyWinner, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.DeclareWinners")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return nil, err
	}

	unique := make([]string, 0, len(teamIDs))
	seen := make(map[string]struct{}, len(teamIDs))
	for _, raw := range teamIDs {
		teamID := strings.TrimSpace(raw)
		if teamID == "" {
			continue
		}
		if _, dup := seen[teamID]; dup {
			continue
		}
		seen[teamID] = struct{}{}
		unique = append(unique, teamID)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("%w: at least one winning team is required", ErrInvalidInput)
	}

	for _, teamID := range unique {
		if _, exists, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
			return nil, fmt.Errorf("get team: %w", err)
		} else if !exists {
			return nil, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
		}
	}

	for _, teamID := range unique {
		newID, err := s.idGen.NewID()
		if err != nil {
			return nil, fmt.Errorf("generate winner id: %w", err)
		}
		item := winner.WeeklyWinner{ID: newID, Week: week, TeamID: teamID}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := s.winnerRepo.Create(ctx, item); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("create winner: %w", err)
		}
	}

	out, err := s.winnerRepo.ListByWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}

	return out, nil
}

func (s *SettlementService) ListWinners(ctx context.Context, week int) ([]winner.WeeklyWinner, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.ListWinners")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return nil, err
	}

	out, err := s.winnerRepo.ListByWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}

	return out, nil
}

// ToggleWinner adds the team to the week's winner set, or removes it when
// already present. Returns true when the team is a winner after the call.
func (s *SettlementService) ToggleWinner(ctx context.Context, week int, teamID string) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.ToggleWinner")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return false, err
	}
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return false, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if _, exists, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return false, fmt.Errorf("get team: %w", err)
	} else if !exists {
		return false, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	current, err := s.winnerRepo.ListByWeek(ctx, week)
	if err != nil {
		return false, fmt.Errorf("list winners: %w", err)
	}
	for _, item := range current {
		if item.TeamID == teamID {
			if err := s.winnerRepo.DeleteByWeekAndTeam(ctx, week, teamID); err != nil {
				return false, fmt.Errorf("delete winner: %w", err)
			}
			return false, nil
		}
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return false, fmt.Errorf("generate winner id: %w", err)
	}
	if err := s.winnerRepo.Create(ctx, winner.WeeklyWinner{ID: newID, Week: week, TeamID: teamID}); err != nil {
		if errors.Is(err, ErrConflict) {
			return true, nil
		}
		return false, fmt.Errorf("create winner: %w", err)
	}

	return true, nil
}

// PrefillWinners derives a winner suggestion from external results for the
// admin to confirm. Only finished fixtures count, draws are excluded, and
// provider names that cannot be reconciled to the catalog are returned for
// manual handling.
func (s *SettlementService) PrefillWinners(ctx context.Context, week int) (WinnerPrefill, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.PrefillWinners")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return WinnerPrefill{}, err
	}
	if s.schedule == nil {
		return WinnerPrefill{}, fmt.Errorf("%w: schedule source is not configured", ErrDependencyUnavailable)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.ScheduleTimeout)
	defer cancel()
	fixtures, err := s.schedule.FixturesByWeek(lookupCtx, week)
	if err != nil {
		return WinnerPrefill{}, fmt.Errorf("%w: fetch fixtures: %v", ErrDependencyUnavailable, err)
	}

	catalog, err := s.teamRepo.List(ctx)
	if err != nil {
		return WinnerPrefill{}, fmt.Errorf("list teams: %w", err)
	}

	out := WinnerPrefill{Week: week}
	seen := make(map[string]struct{})
	for _, item := range fixtures {
		name, finished := item.Winner()
		if !finished || name == fixture.ResultDraw {
			continue
		}

		resolution := s.resolver.Resolve(catalog, name)
		if !resolution.Matched {
			s.logger.WarnContext(ctx, "winner name not reconciled to catalog",
				"week", week,
				"provider_name", name,
			)
			out.Unmatched = append(out.Unmatched, name)
			continue
		}
		if _, dup := seen[resolution.Team.ID]; dup {
			continue
		}
		seen[resolution.Team.ID] = struct{}{}
		out.TeamIDs = append(out.TeamIDs, resolution.Team.ID)
	}
	sort.Strings(out.TeamIDs)

	return out, nil
}

// Settle performs the week transition: persist winners, recompute
// eliminations from the picks participants actually hold, and open the next
// week with a deadline. A participant with no pick for an adjudicated week is
// eliminated for that week; settlement never assigns a pick on anyone's
// behalf. Interrupted runs are safe to repeat; every step is idempotent or
// conflict-tolerant.
func (s *SettlementService) Settle(ctx context.Context, week int, teamIDs []string) (SettlementResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.Settle")
	defer span.End()

	winners, err := s.DeclareWinners(ctx, week, teamIDs)
	if err != nil {
		return SettlementResult{}, err
	}

	result := SettlementResult{
		Week:     week,
		Winners:  winners,
		NextWeek: week + 1,
	}

	participantIDs, err := s.picks.pickRepo.ParticipantIDs(ctx)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list participants: %w", err)
	}
	result.Participants = len(participantIDs)

	allWinners, err := s.winnerRepo.List(ctx)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list winners: %w", err)
	}

	weekPicks, err := s.picks.pickRepo.ListByWeek(ctx, week)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list week picks: %w", err)
	}
	picked := make(map[string]struct{}, len(weekPicks))
	for _, item := range weekPicks {
		picked[item.ParticipantID] = struct{}{}
	}
	for _, participantID := range participantIDs {
		if _, ok := picked[participantID]; ok {
			continue
		}
		result.MissedPicks++
		s.logger.WarnContext(ctx, "participant had no pick in settled week",
			"participant_id", participantID,
			"week", week,
		)
	}

	pool, err := ants.NewPool(s.opts.Workers)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		eliminated atomic.Int32
		workers    sync.WaitGroup
	)
	for _, participantID := range participantIDs {
		participantID := participantID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			participantPicks, err := s.picks.pickRepo.ListByParticipant(ctx, participantID)
			if err != nil {
				s.logger.ErrorContext(ctx, "list picks during settlement failed",
					"participant_id", participantID,
					"error", err.Error(),
				)
				return
			}
			if EvaluateElimination(participantPicks, allWinners, week+1).Eliminated {
				eliminated.Add(1)
			}
		}); err != nil {
			workers.Done()
			return SettlementResult{}, fmt.Errorf("submit settlement task: %w", err)
		}
	}
	workers.Wait()

	result.Eliminated = int(eliminated.Load())

	if result.NextWeek > s.opts.MaxWeek {
		return result, nil
	}

	item, source, err := s.openWeek(ctx, result.NextWeek)
	if err != nil {
		return SettlementResult{}, err
	}
	result.NextDeadline = item
	result.NextDeadlineExists = true
	result.DeadlineSource = source

	return result, nil
}

// Reset wipes all picks, deadlines and winners and reopens the competition
// at startWeek. Restarting into a week that has already been played is
// refused based on the externally observed current week.
func (s *SettlementService) Reset(ctx context.Context, startWeek int) (ResetResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SettlementService.Reset")
	defer span.End()

	if err := s.validateWeek(startWeek); err != nil {
		return ResetResult{}, err
	}

	if s.schedule != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, s.opts.ScheduleTimeout)
		current, found, err := s.schedule.CurrentWeek(lookupCtx)
		cancel()
		if err != nil {
			return ResetResult{}, fmt.Errorf("%w: detect current week: %v", ErrDependencyUnavailable, err)
		}
		if found && startWeek < current {
			return ResetResult{}, fmt.Errorf("%w: start week %d is before current competition week %d", ErrInvalidInput, startWeek, current)
		}
	}

	if err := s.picks.pickRepo.DeleteAll(ctx); err != nil {
		return ResetResult{}, fmt.Errorf("delete picks: %w", err)
	}
	if err := s.winnerRepo.DeleteAll(ctx); err != nil {
		return ResetResult{}, fmt.Errorf("delete winners: %w", err)
	}
	if err := s.deadlineRepo.DeleteAll(ctx); err != nil {
		return ResetResult{}, fmt.Errorf("delete deadlines: %w", err)
	}

	item, source, err := s.openWeek(ctx, startWeek)
	if err != nil {
		return ResetResult{}, err
	}

	s.logger.InfoContext(ctx, "competition reset",
		"start_week", startWeek,
		"deadline_source", source,
	)

	return ResetResult{
		StartWeek:      startWeek,
		Deadline:       item,
		DeadlineSource: source,
	}, nil
}

// openWeek creates the deadline row for a week. A duplicate create from a
// settlement re-run is benign; the surviving row wins.
func (s *SettlementService) openWeek(ctx context.Context, week int) (deadline.Deadline, string, error) {
	at, source := s.nextDeadlineTime(ctx, week)

	newID, err := s.idGen.NewID()
	if err != nil {
		return deadline.Deadline{}, "", fmt.Errorf("generate deadline id: %w", err)
	}
	item := deadline.Deadline{ID: newID, Week: week, Time: at}
	if err := s.deadlineRepo.Create(ctx, item); err != nil {
		if !errors.Is(err, ErrConflict) {
			return deadline.Deadline{}, "", fmt.Errorf("create deadline: %w", err)
		}

		existing, found, getErr := s.deadlineRepo.GetByWeek(ctx, week)
		if getErr != nil {
			return deadline.Deadline{}, "", fmt.Errorf("reload deadline after conflict: %w", getErr)
		}
		if !found {
			return deadline.Deadline{}, "", fmt.Errorf("create deadline: %w", err)
		}
		s.logger.DebugContext(ctx, "deadline already open for week",
			"week", week,
		)
		return existing, source, nil
	}

	s.logger.InfoContext(ctx, "week opened",
		"week", week,
		"deadline", at.Format(time.RFC3339),
		"deadline_source", source,
	)

	return item, source, nil
}

// nextDeadlineTime derives the cut-off from the earliest kickoff of the
// week's fixtures, minus the configured lead. When the schedule source is
// missing, slow, or empty, the fallback policy applies instead; the two
// origins must stay distinguishable in telemetry.
func (s *SettlementService) nextDeadlineTime(ctx context.Context, week int) (time.Time, string) {
	if s.schedule == nil {
		s.logger.WarnContext(ctx, "deadline falling back, schedule source not configured",
			"week", week,
			"deadline_source", DeadlineSourceFallback,
		)
		return s.fallbackDeadline(), DeadlineSourceFallback
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.opts.ScheduleTimeout)
	defer cancel()
	fixtures, err := s.schedule.FixturesByWeek(lookupCtx, week)
	if err != nil {
		s.logger.WarnContext(ctx, "deadline falling back, schedule lookup failed",
			"week", week,
			"deadline_source", DeadlineSourceFallback,
			"error", err.Error(),
		)
		return s.fallbackDeadline(), DeadlineSourceFallback
	}

	earliest, found := fixture.EarliestKickoff(fixtures)
	if !found {
		s.logger.WarnContext(ctx, "deadline falling back, no fixtures scheduled",
			"week", week,
			"deadline_source", DeadlineSourceFallback,
		)
		return s.fallbackDeadline(), DeadlineSourceFallback
	}

	return earliest.Add(-s.opts.DeadlineLead), DeadlineSourceSchedule
}

func (s *SettlementService) fallbackDeadline() time.Time {
	base := s.now().Add(s.opts.FallbackDelay)
	return time.Date(base.Year(), base.Month(), base.Day(), s.opts.FallbackHour, 0, 0, 0, base.Location())
}
