package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/last-man-standing/internal/domain/deadline"
	qb "github.com/riskibarqy/last-man-standing/internal/platform/querybuilder"
)

type DeadlineRepository struct {
	db *sqlx.DB
}

func NewDeadlineRepository(db *sqlx.DB) *DeadlineRepository {
	return &DeadlineRepository{db: db}
}

func (r *DeadlineRepository) List(ctx context.Context) ([]deadline.Deadline, error) {
	query, args, err := qb.Select("*").From("deadlines").
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list deadlines query: %w", err)
	}

	var rows []deadlineTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}

	out := make([]deadline.Deadline, 0, len(rows))
	for _, row := range rows {
		out = append(out, deadlineFromRow(row))
	}

	return out, nil
}

func (r *DeadlineRepository) GetByWeek(ctx context.Context, week int) (deadline.Deadline, bool, error) {
	query, args, err := qb.Select("*").From("deadlines").
		Where(qb.Eq("week", week)).
		ToSQL()
	if err != nil {
		return deadline.Deadline{}, false, fmt.Errorf("build get deadline query: %w", err)
	}

	var row deadlineTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return deadline.Deadline{}, false, nil
		}
		return deadline.Deadline{}, false, fmt.Errorf("get deadline: %w", err)
	}

	return deadlineFromRow(row), true, nil
}

func (r *DeadlineRepository) MaxWeek(ctx context.Context) (int, bool, error) {
	query, args, err := qb.Select("COALESCE(MAX(week), 0)").From("deadlines").ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build max week query: %w", err)
	}

	var week int
	if err := r.db.GetContext(ctx, &week, query, args...); err != nil {
		return 0, false, fmt.Errorf("select max week: %w", err)
	}
	if week == 0 {
		return 0, false, nil
	}

	return week, true, nil
}

func (r *DeadlineRepository) Create(ctx context.Context, item deadline.Deadline) error {
	query, args, err := qb.InsertModel("deadlines", deadlineInsertModel{
		PublicID: item.ID,
		Week:     item.Week,
		Deadline: item.Time,
		IsClosed: item.IsClosed,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert deadline query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapConstraintError(err, "insert deadline")
	}

	return nil
}

func (r *DeadlineRepository) Update(ctx context.Context, item deadline.Deadline) error {
	query, args, err := qb.Update("deadlines").
		Set("deadline_at", item.Time).
		Set("is_closed", item.IsClosed).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update deadline query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update deadline: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deadline rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update deadline: deadline %s not found", item.ID)
	}

	return nil
}

func (r *DeadlineRepository) DeleteAll(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("deadlines").ToSQL()
	if err != nil {
		return fmt.Errorf("build delete deadlines query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete deadlines: %w", err)
	}

	return nil
}

func deadlineFromRow(row deadlineTableModel) deadline.Deadline {
	return deadline.Deadline{
		ID:       row.PublicID,
		Week:     row.Week,
		Time:     row.Deadline,
		IsClosed: row.IsClosed,
	}
}
