package deadline

import "context"

// Repository exposes deadline persistence. Create must fail with the store's
// uniqueness error when a row for the week already exists.
type Repository interface {
	List(ctx context.Context) ([]Deadline, error)
	GetByWeek(ctx context.Context, week int) (Deadline, bool, error)
	MaxWeek(ctx context.Context) (int, bool, error)
	Create(ctx context.Context, item Deadline) error
	Update(ctx context.Context, item Deadline) error
	DeleteAll(ctx context.Context) error
}
