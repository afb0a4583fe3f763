package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	deadlinemock "github.com/riskibarqy/last-man-standing/internal/mocks/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/platform/id"
	"github.com/stretchr/testify/mock"
)

func TestDeadlineService_CurrentWeek_UsesMaxWeekUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deadlineRepo := deadlinemock.NewRepository(t)

	service := NewDeadlineService(deadlineRepo, id.NewRandomGenerator(), 38, nil)

	deadlineRepo.
		On("MaxWeek", mock.MatchedBy(func(v context.Context) bool { return v != nil })).
		Return(7, true, nil).
		Once()

	week, err := service.CurrentWeek(ctx)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if week != 7 {
		t.Fatalf("unexpected week: got=%d want=7", week)
	}
}

func TestDeadlineService_CurrentWeek_DefaultsToOneUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deadlineRepo := deadlinemock.NewRepository(t)

	service := NewDeadlineService(deadlineRepo, id.NewRandomGenerator(), 38, nil)

	deadlineRepo.
		On("MaxWeek", mock.MatchedBy(func(v context.Context) bool { return v != nil })).
		Return(0, false, nil).
		Once()

	week, err := service.CurrentWeek(ctx)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if week != 1 {
		t.Fatalf("unexpected week: got=%d want=1", week)
	}
}

func TestDeadlineService_GateForWeek_LockedByOverrideUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deadlineRepo := deadlinemock.NewRepository(t)

	now := time.Date(2025, 9, 13, 12, 0, 0, 0, time.UTC)
	service := NewDeadlineService(deadlineRepo, id.NewRandomGenerator(), 38, func() time.Time { return now })

	deadlineRepo.
		On("GetByWeek", mock.MatchedBy(func(v context.Context) bool { return v != nil }), 3).
		Return(deadline.Deadline{ID: "dl-3", Week: 3, Time: now.Add(time.Hour), IsClosed: true}, true, nil).
		Once()

	gate, err := service.GateForWeek(ctx, 3)
	if err != nil {
		t.Fatalf("gate for week: %v", err)
	}
	if !gate.Locked {
		t.Fatal("expected closed week to be locked")
	}
}

func TestDeadlineService_GateForWeek_RepositoryErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	deadlineRepo := deadlinemock.NewRepository(t)

	service := NewDeadlineService(deadlineRepo, id.NewRandomGenerator(), 38, nil)
	repoErr := errors.New("db timeout")

	deadlineRepo.
		On("GetByWeek", mock.MatchedBy(func(v context.Context) bool { return v != nil }), 3).
		Return(deadline.Deadline{}, false, repoErr).
		Once()

	_, err := service.GateForWeek(ctx, 3)
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
