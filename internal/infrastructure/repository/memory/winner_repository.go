package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

type WinnerRepository struct {
	mu    sync.RWMutex
	items []winner.WeeklyWinner
}

func NewWinnerRepository() *WinnerRepository {
	return &WinnerRepository{}
}

func (r *WinnerRepository) List(_ context.Context) ([]winner.WeeklyWinner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]winner.WeeklyWinner, 0, len(r.items))
	out = append(out, r.items...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].TeamID < out[j].TeamID
	})

	return out, nil
}

func (r *WinnerRepository) ListByWeek(_ context.Context, week int) ([]winner.WeeklyWinner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]winner.WeeklyWinner, 0, len(r.items))
	for _, item := range r.items {
		if item.Week == week {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *WinnerRepository) Create(_ context.Context, item winner.WeeklyWinner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Week == item.Week && existing.TeamID == item.TeamID {
			return fmt.Errorf("%w: winner exists for week=%d team=%s", usecase.ErrConflict, item.Week, item.TeamID)
		}
	}

	r.items = append(r.items, item)
	return nil
}

func (r *WinnerRepository) DeleteByWeekAndTeam(_ context.Context, week int, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.items[:0]
	for _, item := range r.items {
		if item.Week == week && item.TeamID == teamID {
			continue
		}
		out = append(out, item)
	}
	r.items = out

	return nil
}

func (r *WinnerRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	return nil
}
