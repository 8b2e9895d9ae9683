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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// ListUsers returns every user ordered by id, password hashes included.
// Serialisation drops the hash (see model.User).
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, password, is_active FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Password, &u.IsActive); err != nil {
			return nil, fmt.Errorf("sqldb: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating users: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		db.dialect.rebind(`SELECT id, email, password, is_active FROM users WHERE id = ?`),
		id,
	).Scan(&u.ID, &u.Email, &u.Password, &u.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqldb: getting user %d: %w", id, err)
	}

	return &u, nil
}
