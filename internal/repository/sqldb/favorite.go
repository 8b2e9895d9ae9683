package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/starwars-api/internal/apperror"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

var _ repository.FavoriteRepository = (*DB)(nil)

const favoriteColumns = `id, name, user_id, kind, entity_id`

func scanFavorite(s rowScanner) (model.Favorite, error) {
	var f model.Favorite
	err := s.Scan(&f.ID, &f.Name, &f.UserID, &f.Kind, &f.EntityID)
	return f, err
}

func (db *DB) queryFavorites(ctx context.Context, query string, args ...any) ([]model.Favorite, error) {
	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing favorites: %w", err)
	}
	defer rows.Close()

	favorites := []model.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning favorite row: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating favorites: %w", err)
	}

	return favorites, nil
}

// ListFavorites returns the favorites of every user, ordered by id.
func (db *DB) ListFavorites(ctx context.Context) ([]model.Favorite, error) {
	return db.queryFavorites(ctx,
		`SELECT `+favoriteColumns+` FROM favorites ORDER BY id`)
}

// ListFavoritesByUser returns one user's favorites, ordered by id.
func (db *DB) ListFavoritesByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	return db.queryFavorites(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? ORDER BY id`, userID)
}

// FindFavorite looks a favorite up by its natural key (user_id, name).
// Returns apperror.ErrNotFound if the user has not favorited that name.
func (db *DB) FindFavorite(ctx context.Context, userID int64, name string) (*model.Favorite, error) {
	f, err := scanFavorite(db.conn.QueryRowContext(ctx,
		db.dialect.rebind(`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? AND name = ?`),
		userID, name,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundf("favorite %q not found for user %d", name, userID)
		}
		return nil, fmt.Errorf("sqldb: finding favorite %q for user %d: %w", name, userID, err)
	}
	return &f, nil
}

func favoriteExists(fav *model.Favorite) *apperror.AppError {
	return apperror.Conflictf("favorite %q already exists for user %d", fav.Name, fav.UserID)
}

// CreateFavorite inserts fav and sets fav.ID.
//
// THE UNIQUE CONSTRAINT IS THE GUARD:
// Callers check FindFavorite first, but two requests can both pass that check.
// Only one INSERT can win against favorite_unique; the loser gets
// apperror.ErrConflict and its transaction is rolled back.
//
// RETURNING id works on both SQLite (3.35+) and Postgres, which is why it is used
// instead of sql.Result.LastInsertId (unsupported by the pgx driver).
func (db *DB) CreateFavorite(ctx context.Context, fav *model.Favorite) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqldb: beginning favorite insert: %w", err)
	}
	defer rollback(tx)

	err = tx.QueryRowContext(ctx,
		db.dialect.rebind(`INSERT INTO favorites (name, user_id, kind, entity_id)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`),
		fav.Name, fav.UserID, string(fav.Kind), fav.EntityID,
	).Scan(&fav.ID)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return favoriteExists(fav)
		case isForeignKeyViolation(err):
			return apperror.NotFound("user", strconv.FormatInt(fav.UserID, 10))
		}
		return fmt.Errorf("sqldb: inserting favorite %q for user %d: %w", fav.Name, fav.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return favoriteExists(fav)
		}
		return fmt.Errorf("sqldb: committing favorite insert: %w", err)
	}

	return nil
}

// DeleteFavorite removes the favorite keyed by (userID, name) and returns the
// deleted row. The lookup and the delete share one transaction.
//
// Returns apperror.ErrNotFound if there was nothing to delete, including when a
// concurrent request deleted it between the two statements.
func (db *DB) DeleteFavorite(ctx context.Context, userID int64, name string) (*model.Favorite, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqldb: beginning favorite delete: %w", err)
	}
	defer rollback(tx)

	f, err := scanFavorite(tx.QueryRowContext(ctx,
		db.dialect.rebind(`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = ? AND name = ?`),
		userID, name,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFoundf("favorite %q not found for user %d", name, userID)
		}
		return nil, fmt.Errorf("sqldb: finding favorite %q for user %d: %w", name, userID, err)
	}

	result, err := tx.ExecContext(ctx,
		db.dialect.rebind(`DELETE FROM favorites WHERE id = ?`), f.ID)
	if err != nil {
		return nil, fmt.Errorf("sqldb: deleting favorite %d: %w", f.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqldb: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFoundf("favorite %q not found for user %d", name, userID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqldb: committing favorite delete: %w", err)
	}

	return &f, nil
}
