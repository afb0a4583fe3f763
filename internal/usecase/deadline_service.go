package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
)

const (
	DeadlineStateNone   = "none"
	DeadlineStateClosed = "closed"
	DeadlineStatePassed = "passed"
	DeadlineStateUrgent = "urgent"
	DeadlineStateSoon   = "soon"
	DeadlineStateOpen   = "open"
)

const (
	deadlineUrgentWindow = time.Hour
	deadlineSoonWindow   = 24 * time.Hour
)

// GateStatus is the gate decision for one week at one instant. Remaining is
// meaningful only for the urgent, soon and open states.
type GateStatus struct {
	Locked    bool
	State     string
	Remaining time.Duration
}

// ClassifyDeadline derives the gate status from a deadline record and an
// explicit clock reading. A missing record leaves the week unlocked.
func ClassifyDeadline(item deadline.Deadline, exists bool, now time.Time) GateStatus {
	if !exists {
		return GateStatus{State: DeadlineStateNone}
	}
	if item.IsClosed {
		return GateStatus{Locked: true, State: DeadlineStateClosed}
	}
	if !now.Before(item.Time) {
		return GateStatus{Locked: true, State: DeadlineStatePassed}
	}

	remaining := item.Time.Sub(now)
	state := DeadlineStateOpen
	switch {
	case remaining <= deadlineUrgentWindow:
		state = DeadlineStateUrgent
	case remaining <= deadlineSoonWindow:
		state = DeadlineStateSoon
	}

	return GateStatus{State: state, Remaining: remaining}
}

type DeadlineView struct {
	Week     int
	Deadline deadline.Deadline
	Exists   bool
	Gate     GateStatus
}

type DeadlineService struct {
	deadlineRepo deadline.Repository
	idGen        id.Generator
	maxWeek      int
	now          func() time.Time
}

func NewDeadlineService(
	deadlineRepo deadline.Repository,
	idGen id.Generator,
	maxWeek int,
	now func() time.Time,
) *DeadlineService {
	if now == nil {
		now = time.Now
	}
	return &DeadlineService{
		deadlineRepo: deadlineRepo,
		idGen:        idGen,
		maxWeek:      maxWeek,
		now:          now,
	}
}

func (s *DeadlineService) validateWeek(week int) error {
	if week < 1 || week > s.maxWeek {
		return fmt.Errorf("%w: week must be between 1 and %d", ErrInvalidInput, s.maxWeek)
	}
	return nil
}

// GateForWeek is consulted before every pick write; transport-level checks
// are advisory only.
func (s *DeadlineService) GateForWeek(ctx context.Context, week int) (GateStatus, error) {
	if err := s.validateWeek(week); err != nil {
		return GateStatus{}, err
	}

	item, exists, err := s.deadlineRepo.GetByWeek(ctx, week)
	if err != nil {
		return GateStatus{}, fmt.Errorf("get deadline: %w", err)
	}

	return ClassifyDeadline(item, exists, s.now()), nil
}

func (s *DeadlineService) ViewForWeek(ctx context.Context, week int) (DeadlineView, error) {
	if err := s.validateWeek(week); err != nil {
		return DeadlineView{}, err
	}

	item, exists, err := s.deadlineRepo.GetByWeek(ctx, week)
	if err != nil {
		return DeadlineView{}, fmt.Errorf("get deadline: %w", err)
	}

	return DeadlineView{
		Week:     week,
		Deadline: item,
		Exists:   exists,
		Gate:     ClassifyDeadline(item, exists, s.now()),
	}, nil
}

func (s *DeadlineService) List(ctx context.Context) ([]DeadlineView, error) {
	ctx, span := startUsecaseSpan(ctx, "DeadlineService.List")
	defer span.End()

	items, err := s.deadlineRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}

	now := s.now()
	out := make([]DeadlineView, 0, len(items))
	for _, item := range items {
		out = append(out, DeadlineView{
			Week:     item.Week,
			Deadline: item,
			Exists:   true,
			Gate:     ClassifyDeadline(item, true, now),
		})
	}

	return out, nil
}

// CurrentWeek is the highest week holding a deadline row. It is queried
// fresh on every call instead of being cached process-wide so concurrent
// instances cannot diverge. Before any deadline exists the competition is at
// week 1.
func (s *DeadlineService) CurrentWeek(ctx context.Context) (int, error) {
	week, found, err := s.deadlineRepo.MaxWeek(ctx)
	if err != nil {
		return 0, fmt.Errorf("max deadline week: %w", err)
	}
	if !found {
		return 1, nil
	}

	return week, nil
}

// Upsert sets the pick cut-off for a week, creating the row when missing. A
// duplicate create from a concurrent caller is recovered by re-reading and
// updating the surviving row.
func (s *DeadlineService) Upsert(ctx context.Context, week int, at time.Time) (deadline.Deadline, error) {
	ctx, span := startUsecaseSpan(ctx, "DeadlineService.Upsert")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return deadline.Deadline{}, err
	}
	if at.IsZero() {
		return deadline.Deadline{}, fmt.Errorf("%w: deadline time is required", ErrInvalidInput)
	}
	if !at.After(s.now()) {
		return deadline.Deadline{}, fmt.Errorf("%w: deadline time must be in the future", ErrInvalidInput)
	}

	existing, exists, err := s.deadlineRepo.GetByWeek(ctx, week)
	if err != nil {
		return deadline.Deadline{}, fmt.Errorf("get deadline: %w", err)
	}
	if exists {
		existing.Time = at
		if err := s.deadlineRepo.Update(ctx, existing); err != nil {
			return deadline.Deadline{}, fmt.Errorf("update deadline: %w", err)
		}
		return existing, nil
	}

	newID, err := s.idGen.NewID()
	if err != nil {
		return deadline.Deadline{}, fmt.Errorf("generate deadline id: %w", err)
	}
	item := deadline.Deadline{
		ID:   newID,
		Week: week,
		Time: at,
	}
	if err := item.Validate(); err != nil {
		return deadline.Deadline{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.deadlineRepo.Create(ctx, item); err != nil {
		if !errors.Is(err, ErrConflict) {
			return deadline.Deadline{}, fmt.Errorf("create deadline: %w", err)
		}

		current, found, getErr := s.deadlineRepo.GetByWeek(ctx, week)
		if getErr != nil {
			return deadline.Deadline{}, fmt.Errorf("reload deadline after conflict: %w", getErr)
		}
		if !found {
			return deadline.Deadline{}, fmt.Errorf("create deadline: %w", err)
		}
		current.Time = at
		if err := s.deadlineRepo.Update(ctx, current); err != nil {
			return deadline.Deadline{}, fmt.Errorf("update deadline after conflict: %w", err)
		}
		return current, nil
	}

	return item, nil
}

// SetClosed flips the admin override that locks a week regardless of its
// cut-off time.
func (s *DeadlineService) SetClosed(ctx context.Context, week int, closed bool) (deadline.Deadline, error) {
	ctx, span := startUsecaseSpan(ctx, "DeadlineService.SetClosed")
	defer span.End()

	if err := s.validateWeek(week); err != nil {
		return deadline.Deadline{}, err
	}

	item, exists, err := s.deadlineRepo.GetByWeek(ctx, week)
	if err != nil {
		return deadline.Deadline{}, fmt.Errorf("get deadline: %w", err)
	}
	if !exists {
		return deadline.Deadline{}, fmt.Errorf("%w: deadline week=%d", ErrNotFound, week)
	}

	item.IsClosed = closed
	if err := s.deadlineRepo.Update(ctx, item); err != nil {
		return deadline.Deadline{}, fmt.Errorf("update deadline: %w", err)
	}

	return item, nil
}
