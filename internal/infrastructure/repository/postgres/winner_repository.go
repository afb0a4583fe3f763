package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/last-man-standing/internal/domain/winner"
	qb "github.com/riskibarqy/last-man-standing/internal/platform/querybuilder"
)

type WinnerRepository struct {
	db *sqlx.DB
}

func NewWinnerRepository(db *sqlx.DB) *WinnerRepository {
	return &WinnerRepository{db: db}
}

func (r *WinnerRepository) List(ctx context.Context) ([]winner.WeeklyWinner, error) {
	query, args, err := qb.Select("*").From("winning_teams").
		OrderBy("week", "team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list winners query: %w", err)
	}

	return r.selectWinners(ctx, query, args, "list winners")
}

func (r *WinnerRepository) ListByWeek(ctx context.Context, week int) ([]winner.WeeklyWinner, error) {
	query, args, err := qb.Select("*").From("winning_teams").
		Where(qb.Eq("week", week)).
		OrderBy("team_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list winners by week query: %w", err)
	}

	return r.selectWinners(ctx, query, args, "list winners by week")
}

func (r *WinnerRepository) Create(ctx context.Context, item winner.WeeklyWinner) error {
	query, args, err := qb.InsertModel("winning_teams", winnerInsertModel{
		PublicID: item.ID,
		Week:     item.Week,
		TeamID:   item.TeamID,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert winner query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapConstraintError(err, "insert winner")
	}

	return nil
}

func (r *WinnerRepository) DeleteByWeekAndTeam(ctx context.Context, week int, teamID string) error {
	query, args, err := qb.DeleteFrom("winning_teams").
		Where(
			qb.Eq("week", week),
			qb.Eq("team_public_id", teamID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete winner query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete winner: %w", err)
	}

	return nil
}

func (r *WinnerRepository) DeleteAll(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("winning_teams").ToSQL()
	if err != nil {
		return fmt.Errorf("build delete winners query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete winners: %w", err)
	}

	return nil
}

func (r *WinnerRepository) selectWinners(ctx context.Context, query string, args []any, operation string) ([]winner.WeeklyWinner, error) {
	var rows []winnerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	out := make([]winner.WeeklyWinner, 0, len(rows))
	for _, row := range rows {
		out = append(out, winner.WeeklyWinner{
			ID:     row.PublicID,
			Week:   row.Week,
			TeamID: row.TeamID,
		})
	}

	return out, nil
}
