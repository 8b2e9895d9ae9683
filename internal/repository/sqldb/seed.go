package sqldb

import (
	"context"
	"fmt"

	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

var _ repository.Seeder = (*DB)(nil)

// ON CONFLICT (id) DO NOTHING is understood by SQLite (3.24+) and Postgres alike,
// which makes every seed insert idempotent.

func (db *DB) SeedPlanet(ctx context.Context, p *model.Planet) error {
	_, err := db.conn.ExecContext(ctx,
		db.dialect.rebind(`INSERT INTO planets (`+planetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		p.ID, p.Name, p.Diameter, p.RotationPeriod,
		p.Population, p.Terrain, p.SurfaceWater, p.Climate,
	)
	if err != nil {
		return fmt.Errorf("sqldb: seeding planet %d: %w", p.ID, err)
	}
	return nil
}

func (db *DB) SeedCharacter(ctx context.Context, c *model.Character) error {
	_, err := db.conn.ExecContext(ctx,
		db.dialect.rebind(`INSERT INTO characters (`+characterColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`),
		c.ID, c.Name, c.BirthYear, c.Height, c.Mass, c.Gender, c.PlanetID,
	)
	if err != nil {
		return fmt.Errorf("sqldb: seeding character %d: %w", c.ID, err)
	}
	return nil
}

func (db *DB) SeedUser(ctx context.Context, u *model.User) error {
	_, err := db.conn.ExecContext(ctx,
		db.dialect.rebind(`INSERT INTO users (id, email, password, is_active)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`),
		u.ID, u.Email, u.Password, u.IsActive,
	)
	if err != nil {
		return fmt.Errorf("sqldb: seeding user %d: %w", u.ID, err)
	}
	return nil
}

// ResetSequences moves the Postgres id sequences past the explicitly seeded ids,
// so later inserts without an id don't collide. SQLite's AUTOINCREMENT already
// tracks the largest id, so this is a no-op there.
func (db *DB) ResetSequences(ctx context.Context) error {
	if db.dialect != DialectPostgres {
		return nil
	}
	for _, table := range []string{"users", "planets", "characters"} {
		_, err := db.conn.ExecContext(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s`,
			table,
		))
		if err != nil {
			return fmt.Errorf("sqldb: resetting %s id sequence: %w", table, err)
		}
	}
	return nil
}
