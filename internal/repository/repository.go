// Package repository declares the storage interfaces the service layer depends on.
// Implementations live in subpackages (see repository/sqldb).
package repository

import (
	"context"

	"github.com/sakif/starwars-api/internal/model"
)

// CatalogRepository answers read-only queries over planets and characters.
// Get methods return apperror.ErrNotFound when no row matches.
type CatalogRepository interface {
	ListPlanets(ctx context.Context) ([]model.Planet, error)
	GetPlanet(ctx context.Context, id int64) (*model.Planet, error)
	ListCharacters(ctx context.Context) ([]model.Character, error)
	GetCharacter(ctx context.Context, id int64) (*model.Character, error)
}

type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// FavoriteRepository persists favorites.
//
// CreateFavorite must return apperror.ErrConflict when the (user_id, name)
// uniqueness constraint rejects the row, after rolling its transaction back.
// DeleteFavorite returns apperror.ErrNotFound when there is nothing to delete.
type FavoriteRepository interface {
	ListFavorites(ctx context.Context) ([]model.Favorite, error)
	ListFavoritesByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	FindFavorite(ctx context.Context, userID int64, name string) (*model.Favorite, error)
	CreateFavorite(ctx context.Context, fav *model.Favorite) error
	DeleteFavorite(ctx context.Context, userID int64, name string) (*model.Favorite, error)
}

// Seeder loads fixture rows with explicit ids. Inserts are idempotent: a row
// whose id already exists is left untouched.
type Seeder interface {
	SeedPlanet(ctx context.Context, p *model.Planet) error
	SeedCharacter(ctx context.Context, c *model.Character) error
	SeedUser(ctx context.Context, u *model.User) error
	// ResetSequences runs after a seed so generated ids start past the seeded ones.
	ResetSequences(ctx context.Context) error
}
