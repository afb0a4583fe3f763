package pick

import "context"

// Repository exposes pick persistence. Create must fail with the store's
// uniqueness error when a (participant, week) or (participant, team) row
// already exists; callers recover by re-reading.
type Repository interface {
	ListByParticipant(ctx context.Context, participantID string) ([]Pick, error)
	ListByWeek(ctx context.Context, week int) ([]Pick, error)
	ListAll(ctx context.Context) ([]Pick, error)
	GetByParticipantAndWeek(ctx context.Context, participantID string, week int) (Pick, bool, error)
	Create(ctx context.Context, item Pick) error
	Update(ctx context.Context, item Pick) error
	DeleteAll(ctx context.Context) error
	ParticipantIDs(ctx context.Context) ([]string, error)
}
