package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

// DeadlineRepository keeps at most one row per week, like the SQL schema.
type DeadlineRepository struct {
	mu    sync.RWMutex
	items []deadline.Deadline
}

func NewDeadlineRepository() *DeadlineRepository {
	return &DeadlineRepository{}
}

func (r *DeadlineRepository) List(_ context.Context) ([]deadline.Deadline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]deadline.Deadline, 0, len(r.items))
	out = append(out, r.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })

	return out, nil
}

func (r *DeadlineRepository) GetByWeek(_ context.Context, week int) (deadline.Deadline, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.Week == week {
			return item, true, nil
		}
	}

	return deadline.Deadline{}, false, nil
}

func (r *DeadlineRepository) MaxWeek(_ context.Context) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return 0, false, nil
	}

	max := r.items[0].Week
	for _, item := range r.items[1:] {
		if item.Week > max {
			max = item.Week
		}
	}

	return max, true, nil
}

func (r *DeadlineRepository) Create(_ context.Context, item deadline.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Week == item.Week {
			return fmt.Errorf("%w: deadline exists for week=%d", usecase.ErrConflict, item.Week)
		}
	}

	r.items = append(r.items, item)
	return nil
}

func (r *DeadlineRepository) Update(_ context.Context, item deadline.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for idx := range r.items {
		if r.items[idx].ID == item.ID {
			r.items[idx] = item
			return nil
		}
	}

	return fmt.Errorf("deadline id=%s not found", item.ID)
}

func (r *DeadlineRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	return nil
}
