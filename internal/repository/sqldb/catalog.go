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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y stops implementing X.
var _ repository.CatalogRepository = (*DB)(nil)

const (
	planetColumns    = `id, name, diameter, rotation_period, population, terrain, surface_water, climate`
	characterColumns = `id, name, birth_year, height, mass, gender, planet_id`
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan function
// serves single-row and multi-row queries.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlanet(s rowScanner) (model.Planet, error) {
	var p model.Planet
	err := s.Scan(
		&p.ID, &p.Name, &p.Diameter, &p.RotationPeriod,
		&p.Population, &p.Terrain, &p.SurfaceWater, &p.Climate,
	)
	return p, err
}

func scanCharacter(s rowScanner) (model.Character, error) {
	var c model.Character
	err := s.Scan(
		&c.ID, &c.Name, &c.BirthYear, &c.Height,
		&c.Mass, &c.Gender, &c.PlanetID,
	)
	return c, err
}

// ListPlanets returns every planet ordered by id. An empty catalog yields an
// empty (non-nil) slice so it serialises as `[]`, not `null`.
func (db *DB) ListPlanets(ctx context.Context) ([]model.Planet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+planetColumns+` FROM planets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing planets: %w", err)
	}
	// CRITICAL: always close rows when done! An open *sql.Rows pins a pooled connection.
	defer rows.Close()

	planets := []model.Planet{}
	for rows.Next() {
		p, err := scanPlanet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning planet row: %w", err)
		}
		planets = append(planets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating planets: %w", err)
	}

	return planets, nil
}

// GetPlanet returns the planet with the given id, or apperror.ErrNotFound.
func (db *DB) GetPlanet(ctx context.Context, id int64) (*model.Planet, error) {
	p, err := scanPlanet(db.conn.QueryRowContext(ctx,
		db.dialect.rebind(`SELECT `+planetColumns+` FROM planets WHERE id = ?`), id))
	if err != nil {
		// sql.ErrNoRows just means "no matching row"; translate it to the domain error.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("planet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqldb: getting planet %d: %w", id, err)
	}
	return &p, nil
}

// ListCharacters returns every character ordered by id.
func (db *DB) ListCharacters(ctx context.Context) ([]model.Character, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+characterColumns+` FROM characters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing characters: %w", err)
	}
	defer rows.Close()

	characters := []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("sqldb: scanning character row: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating characters: %w", err)
	}

	return characters, nil
}

// GetCharacter returns the character with the given id, or apperror.ErrNotFound.
func (db *DB) GetCharacter(ctx context.Context, id int64) (*model.Character, error) {
	c, err := scanCharacter(db.conn.QueryRowContext(ctx,
		db.dialect.rebind(`SELECT `+characterColumns+` FROM characters WHERE id = ?`), id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("character", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqldb: getting character %d: %w", id, err)
	}
	return &c, nil
}
