package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/pkg/composables"
)

type GameService struct {
	repo game.Repository
}

func NewGameService(repo game.Repository) *GameService {
	return &GameService{repo: repo}
}

func (s *GameService) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *GameService) List(ctx context.Context) ([]*game.Game, error) {
	return s.repo.List(ctx)
}

func (s *GameService) Delete(ctx context.Context, id uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}
