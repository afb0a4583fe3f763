package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/last-man-standing/internal/domain/team"
	teammock "github.com/riskibarqy/last-man-standing/internal/mocks/domain/team"
	"github.com/stretchr/testify/mock"
)

func TestTeamService_List_SortsCatalogUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := teammock.NewRepository(t)

	service := NewTeamService(teamRepo, nil)
	catalog := []team.Team{
		{ID: "eng-che", Name: "Chelsea", Short: "CHE"},
		{ID: "eng-ars", Name: "Arsenal", Short: "ARS"},
	}

	teamRepo.
		On("List", mock.MatchedBy(func(v context.Context) bool { return v != nil })).
		Return(catalog, nil).
		Once()

	got, err := service.List(ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected team count: got=%d want=2", len(got))
	}
	if got[0].ID != "eng-ars" {
		t.Fatalf("expected Arsenal first, got %s", got[0].ID)
	}
}

func TestTeamService_Get_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := teammock.NewRepository(t)

	service := NewTeamService(teamRepo, nil)

	teamRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v != nil }), "eng-zzz").
		Return(team.Team{}, false, nil).
		Once()

	_, err := service.Get(ctx, "eng-zzz")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTeamService_List_PropagatesRepositoryErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	teamRepo := teammock.NewRepository(t)

	service := NewTeamService(teamRepo, nil)
	repoErr := errors.New("connection reset")

	teamRepo.
		On("List", mock.MatchedBy(func(v context.Context) bool { return v != nil })).
		Return(nil, repoErr).
		Once()

	_, err := service.List(ctx)
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
