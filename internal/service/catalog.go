package service

import (
	"context"
	"log/slog"

	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

// CatalogService answers read-only queries over planets and characters.
type CatalogService struct {
	repo   repository.CatalogRepository
	logger *slog.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// ListPlanets returns every planet. An empty catalog is an empty slice, not an error.
func (s *CatalogService) ListPlanets(ctx context.Context) ([]model.Planet, error) {
	planets, err := s.repo.ListPlanets(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list planets", err)
	}
	return planets, nil
}

// GetPlanet returns one planet, or apperror.ErrNotFound.
func (s *CatalogService) GetPlanet(ctx context.Context, id int64) (*model.Planet, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	planet, err := s.repo.GetPlanet(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, "get planet", err)
	}
	return planet, nil
}

func (s *CatalogService) ListCharacters(ctx context.Context) ([]model.Character, error) {
	characters, err := s.repo.ListCharacters(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list characters", err)
	}
	return characters, nil
}

// GetCharacter returns one character, or apperror.ErrNotFound.
// The homeworld is reported as a raw planet id, never resolved.
func (s *CatalogService) GetCharacter(ctx context.Context, id int64) (*model.Character, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}

	character, err := s.repo.GetCharacter(ctx, id)
	if err != nil {
		return nil, storeFailure(s.logger, "get character", err)
	}
	return character, nil
}
