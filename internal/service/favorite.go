package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/starwars-api/internal/apperror"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

// Reasons attached to not-found log lines. Both reach the client as a 404, but
// they are different conditions: the catalog entity does not exist at all, or
// it exists and the user never favorited it.
const (
	ReasonEntityMissing   = "catalog_entity_missing"
	ReasonFavoriteMissing = "favorite_missing"
)

// FavoriteService owns the favorites ledger: add, remove and list favorites
// while keeping at most one favorite per (user, name).
//
// THE UNIQUENESS INVARIANT:
// Add checks for an existing favorite before inserting, but that check alone
// races: two concurrent requests can both see "absent". The store's
// favorite_unique constraint is what actually guarantees a single row. The
// loser of the race gets apperror.ErrConflict from the repository, and Add
// turns that back into "already exists" by looking the winner's row up once.
type FavoriteService struct {
	catalog   repository.CatalogRepository
	users     repository.UserRepository
	favorites repository.FavoriteRepository
	logger    *slog.Logger
}

func NewFavoriteService(
	catalog repository.CatalogRepository,
	users repository.UserRepository,
	favorites repository.FavoriteRepository,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		catalog:   catalog,
		users:     users,
		favorites: favorites,
		logger:    logger,
	}
}

// Add favorites the catalog entity (kind, entityID) for userID.
//
// The bool result reports whether a new favorite was created. False with a
// nil error means the user had already favorited that name and the existing
// row is returned.
//
// Errors:
//   - ErrValidation: non-positive ids or an unknown kind
//   - ErrNotFound: the entity or the user does not exist
//   - ErrConflict: the insert lost a race and the winning row vanished before
//     it could be read back
//   - ErrStore: any persistence failure (already rolled back)
func (s *FavoriteService) Add(ctx context.Context, userID int64, kind model.Kind, entityID int64) (*model.Favorite, bool, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, false, err
	}
	log := s.logger.With(
		slog.Int64("user_id", userID),
		slog.String("kind", kind.String()),
		slog.Int64("entity_id", entityID),
	)

	name, err := s.resolve(ctx, log, kind, entityID)
	if err != nil {
		return nil, false, err
	}

	// === FAST PATH: already favorited ===
	existing, err := s.favorites.FindFavorite(ctx, userID, name)
	switch {
	case err == nil:
		log.Info("favorite already exists", slog.Int64("favorite_id", existing.ID))
		return existing, false, nil
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, false, storeFailure(log, "add favorite", err)
	}

	// === INSERT, guarded by the unique constraint ===
	fav := &model.Favorite{
		Name:     name,
		UserID:   userID,
		Kind:     kind,
		EntityID: entityID,
	}
	err = s.favorites.CreateFavorite(ctx, fav)
	switch {
	case err == nil:
		log.Info("favorite created",
			slog.Int64("favorite_id", fav.ID),
			slog.String("name", fav.Name),
		)
		return fav, true, nil

	case errors.Is(err, apperror.ErrConflict):
		// Another request inserted the same (user, name) between our lookup
		// and our insert. Retry the lookup once; no further retries.
		existing, lookupErr := s.favorites.FindFavorite(ctx, userID, name)
		if lookupErr != nil {
			log.Warn("favorite conflict without a readable winner", slog.String("error", lookupErr.Error()))
			if errors.Is(lookupErr, apperror.ErrNotFound) {
				return nil, false, err
			}
			return nil, false, storeFailure(log, "add favorite", lookupErr)
		}
		log.Info("favorite already exists",
			slog.Int64("favorite_id", existing.ID),
			slog.Bool("after_conflict", true),
		)
		return existing, false, nil

	case errors.Is(err, apperror.ErrNotFound):
		log.Info("favorite owner does not exist")
		return nil, false, err
	}

	return nil, false, storeFailure(log, "add favorite", err)
}

// Remove deletes the user's favorite for the catalog entity (kind, entityID)
// and returns the deleted row.
//
// Both "entity does not exist" and "entity exists but is not a favorite"
// return ErrNotFound; they are told apart in the logs by the reason attribute.
// The lookup and delete run in one store transaction, so a failure leaves the
// ledger unchanged.
func (s *FavoriteService) Remove(ctx context.Context, userID int64, kind model.Kind, entityID int64) (*model.Favorite, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	log := s.logger.With(
		slog.Int64("user_id", userID),
		slog.String("kind", kind.String()),
		slog.Int64("entity_id", entityID),
	)

	name, err := s.resolve(ctx, log, kind, entityID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.favorites.DeleteFavorite(ctx, userID, name)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Info("favorite not found",
				slog.String("reason", ReasonFavoriteMissing),
				slog.String("name", name),
			)
			return nil, err
		}
		return nil, storeFailure(log, "remove favorite", err)
	}

	log.Info("favorite removed",
		slog.Int64("favorite_id", deleted.ID),
		slog.String("name", deleted.Name),
	)
	return deleted, nil
}

// ListAll returns the favorites of every user.
func (s *FavoriteService) ListAll(ctx context.Context) ([]model.Favorite, error) {
	favorites, err := s.favorites.ListFavorites(ctx)
	if err != nil {
		return nil, storeFailure(s.logger, "list favorites", err)
	}
	return favorites, nil
}

// ListForUser returns one user's favorites. An unknown user is ErrNotFound,
// a known user without favorites is an empty slice.
func (s *FavoriteService) ListForUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, storeFailure(s.logger, "list favorites", err)
	}

	favorites, err := s.favorites.ListFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(s.logger, "list favorites", err)
	}
	return favorites, nil
}

// resolve validates the arguments and returns the name of the catalog entity.
// A missing entity is logged with ReasonEntityMissing.
func (s *FavoriteService) resolve(ctx context.Context, log *slog.Logger, kind model.Kind, entityID int64) (string, error) {
	if err := validateID("id", entityID); err != nil {
		return "", err
	}

	var (
		name string
		err  error
	)
	switch kind {
	case model.KindCharacter:
		var c *model.Character
		if c, err = s.catalog.GetCharacter(ctx, entityID); err == nil {
			name = c.Name
		}
	case model.KindPlanet:
		var p *model.Planet
		if p, err = s.catalog.GetPlanet(ctx, entityID); err == nil {
			name = p.Name
		}
	default:
		return "", apperror.ValidationFailed("kind", fmt.Sprintf("unknown catalog kind %q", kind))
	}

	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Info("favorite target not found", slog.String("reason", ReasonEntityMissing))
			return "", err
		}
		return "", storeFailure(log, "resolve "+kind.String(), err)
	}
	return name, nil
}
