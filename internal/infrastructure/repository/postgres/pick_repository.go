package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/last-man-standing/internal/domain/pick"
	qb "github.com/riskibarqy/last-man-standing/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListByParticipant(ctx context.Context, participantID string) ([]pick.Pick, error) {
	query, args, err := pickBaseSelectBuilder().
		Where(qb.Eq("participant_id", participantID)).
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks by participant query: %w", err)
	}

	return r.selectPicks(ctx, query, args, "list picks by participant")
}

func (r *PickRepository) ListByWeek(ctx context.Context, week int) ([]pick.Pick, error) {
	query, args, err := pickBaseSelectBuilder().
		Where(qb.Eq("week", week)).
		OrderBy("participant_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list picks by week query: %w", err)
	}

	return r.selectPicks(ctx, query, args, "list picks by week")
}

func (r *PickRepository) ListAll(ctx context.Context) ([]pick.Pick, error) {
	query, args, err := pickBaseSelectBuilder().
		OrderBy("participant_id", "week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list all picks query: %w", err)
	}

	return r.selectPicks(ctx, query, args, "list all picks")
}

func (r *PickRepository) GetByParticipantAndWeek(ctx context.Context, participantID string, week int) (pick.Pick, bool, error) {
	query, args, err := pickBaseSelectBuilder().
		Where(
			qb.Eq("participant_id", participantID),
			qb.Eq("week", week),
		).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick query: %w", err)
	}

	var row pickTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick: %w", err)
	}

	return pickFromRow(row), true, nil
}

func (r *PickRepository) Create(ctx context.Context, item pick.Pick) error {
	query, args, err := qb.InsertModel("picks", pickInsertModel{
		PublicID:      item.ID,
		ParticipantID: item.ParticipantID,
		TeamID:        item.TeamID,
		Week:          item.Week,
		AutoAssigned:  item.AutoAssigned,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert pick query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return mapConstraintError(err, "insert pick")
	}

	return nil
}

func (r *PickRepository) Update(ctx context.Context, item pick.Pick) error {
	query, args, err := qb.Update("picks").
		Set("team_public_id", item.TeamID).
		Set("auto_assigned", item.AutoAssigned).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("public_id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pick query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapConstraintError(err, "update pick")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pick rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update pick: pick %s not found", item.ID)
	}

	return nil
}

func (r *PickRepository) DeleteAll(ctx context.Context) error {
	query, args, err := qb.DeleteFrom("picks").ToSQL()
	if err != nil {
		return fmt.Errorf("build delete picks query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete picks: %w", err)
	}

	return nil
}

func (r *PickRepository) ParticipantIDs(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("DISTINCT participant_id").From("picks").
		OrderBy("participant_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select participant ids query: %w", err)
	}

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select participant ids: %w", err)
	}

	return out, nil
}

func (r *PickRepository) selectPicks(ctx context.Context, query string, args []any, operation string) ([]pick.Pick, error) {
	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}

	return out, nil
}

func pickBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("picks")
}

func pickFromRow(row pickTableModel) pick.Pick {
	return pick.Pick{
		ID:            row.PublicID,
		ParticipantID: row.ParticipantID,
		TeamID:        row.TeamID,
		Week:          row.Week,
		AutoAssigned:  row.AutoAssigned,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
