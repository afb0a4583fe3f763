package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	"github.com/riskibarqy/last-man-standing/internal/usecase"
)

// PickRepository enforces the same uniqueness constraints as the SQL schema:
// one pick per (participant, week) and one per (participant, team).
type PickRepository struct {
	mu    sync.RWMutex
	items []pick.Pick
}

func NewPickRepository() *PickRepository {
	return &PickRepository{}
}

func (r *PickRepository) ListByParticipant(_ context.Context, participantID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.items))
	for _, item := range r.items {
		if item.ParticipantID == participantID {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *PickRepository) ListByWeek(_ context.Context, week int) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.items))
	for _, item := range r.items {
		if item.Week == week {
			out = append(out, item)
		}
	}

	return out, nil
}

func (r *PickRepository) ListAll(_ context.Context) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.items))
	out = append(out, r.items...)

	return out, nil
}

func (r *PickRepository) GetByParticipantAndWeek(_ context.Context, participantID string, week int) (pick.Pick, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.ParticipantID == participantID && item.Week == week {
			return item, true, nil
		}
	}

	return pick.Pick{}, false, nil
}

func (r *PickRepository) Create(_ context.Context, item pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ParticipantID != item.ParticipantID {
			continue
		}
		if existing.Week == item.Week {
			return fmt.Errorf("%w: pick exists for participant=%s week=%d", usecase.ErrConflict, item.ParticipantID, item.Week)
		}
		if existing.TeamID == item.TeamID {
			return fmt.Errorf("%w: team=%s already used by participant=%s", usecase.ErrConflict, item.TeamID, item.ParticipantID)
		}
	}

	r.items = append(r.items, item)
	return nil
}

func (r *PickRepository) Update(_ context.Context, item pick.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ID == item.ID || existing.ParticipantID != item.ParticipantID {
			continue
		}
		if existing.TeamID == item.TeamID {
			return fmt.Errorf("%w: team=%s already used by participant=%s", usecase.ErrConflict, item.TeamID, item.ParticipantID)
		}
	}

	for idx := range r.items {
		if r.items[idx].ID == item.ID {
			r.items[idx] = item
			return nil
		}
	}

	return fmt.Errorf("pick id=%s not found", item.ID)
}

func (r *PickRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = nil
	return nil
}

func (r *PickRepository) ParticipantIDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.items))
	out := make([]string, 0, len(r.items))
	for _, item := range r.items {
		if _, ok := seen[item.ParticipantID]; ok {
			continue
		}
		seen[item.ParticipantID] = struct{}{}
		out = append(out, item.ParticipantID)
	}
	sort.Strings(out)

	return out, nil
}
