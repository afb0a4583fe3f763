package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	"github.com/riskibarqy/last-man-standing/internal/platform/cache"
)

const teamCatalogCacheKey = "teams:catalog"

// TeamService serves the pick catalog. The catalog is small and immutable
// during a competition, so reads go through a short TTL cache when one is
// configured.
type TeamService struct {
	teamRepo team.Repository
	catalog  *cache.Store
}

func NewTeamService(teamRepo team.Repository, catalog *cache.Store) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		catalog:  catalog,
	}
}

// List returns the catalog ordered by display name, the same ordering
// auto-assignment walks.
func (s *TeamService) List(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "TeamService.List")
	defer span.End()

	if s.catalog == nil {
		return s.load(ctx)
	}

	value, err := s.catalog.GetOrLoad(ctx, teamCatalogCacheKey, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}

	teams, ok := value.([]team.Team)
	if !ok {
		return nil, fmt.Errorf("unexpected catalog cache value %T", value)
	}

	return append([]team.Team(nil), teams...), nil
}

func (s *TeamService) Get(ctx context.Context, teamID string) (team.Team, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return team.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return team.Team{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}

	return item, nil
}

func (s *TeamService) load(ctx context.Context) ([]team.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return team.SortByName(teams), nil
}
