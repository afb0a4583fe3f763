package winner

import "context"

// Repository exposes weekly winner persistence.
type Repository interface {
	List(ctx context.Context) ([]WeeklyWinner, error)
	ListByWeek(ctx context.Context, week int) ([]WeeklyWinner, error)
	Create(ctx context.Context, item WeeklyWinner) error
	DeleteByWeekAndTeam(ctx context.Context, week int, teamID string) error
	DeleteAll(ctx context.Context) error
}
