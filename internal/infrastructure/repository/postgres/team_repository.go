package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	qb "github.com/riskibarqy/last-man-standing/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("name", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("public_id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	return teamFromRow(row), true, nil
}

// SeedCatalog inserts the catalog rows, leaving existing teams untouched so
// repeated startups are safe.
func (r *TeamRepository) SeedCatalog(ctx context.Context, teams []team.Team) error {
	for _, item := range teams {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("seed team %s: %w", item.ID, err)
		}
		query, args, err := qb.InsertModel("teams", teamInsertModel{
			PublicID: item.ID,
			Name:     item.Name,
			Short:    item.Short,
		}, "ON CONFLICT (public_id) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build seed team query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", item.ID, err)
		}
	}

	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:    row.PublicID,
		Name:  row.Name,
		Short: row.Short,
	}
}
