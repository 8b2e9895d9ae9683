// Package seed loads the reference catalog (planets, characters) and the
// initial users into a store.
//
// The catalog is read-only through the API; this package is the only writer.
// The default fixture is embedded in the binary, so a fresh SQLite file is
// usable with no extra setup.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/sakif/starwars-api/internal/auth"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the fixture file format.
type Catalog struct {
	Planets    []PlanetFixture    `yaml:"planets"`
	Characters []CharacterFixture `yaml:"characters"`
	Users      []UserFixture      `yaml:"users"`
}

type PlanetFixture struct {
	ID             int64   `yaml:"id"`
	Name           string  `yaml:"name"`
	Diameter       *int64  `yaml:"diameter"`
	RotationPeriod *int64  `yaml:"rotation_period"`
	Population     *string `yaml:"population"`
	Terrain        *string `yaml:"terrain"`
	SurfaceWater   *int64  `yaml:"surface_water"`
	Climate        *string `yaml:"climate"`
}

type CharacterFixture struct {
	ID        int64   `yaml:"id"`
	Name      string  `yaml:"name"`
	BirthYear *string `yaml:"birth_year"`
	Height    *int64  `yaml:"height"`
	Mass      *int64  `yaml:"mass"`
	Gender    *string `yaml:"gender"`
	PlanetID  *int64  `yaml:"planet_id"`
}

type UserFixture struct {
	ID       int64  `yaml:"id"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"` // plaintext or bcrypt hash
	IsActive bool   `yaml:"is_active"`
}

// Default returns the embedded fixture.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// ReadFile parses a fixture from disk.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("seed: decoding fixture: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ids, required fields and the character → planet references.
// A character may point only at a planet defined in the same fixture.
func (c *Catalog) Validate() error {
	planets := make(map[int64]bool, len(c.Planets))
	for _, p := range c.Planets {
		if p.ID < 1 {
			return fmt.Errorf("seed: planet %q has invalid id %d", p.Name, p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("seed: planet %d has no name", p.ID)
		}
		if planets[p.ID] {
			return fmt.Errorf("seed: duplicate planet id %d", p.ID)
		}
		planets[p.ID] = true
	}

	characters := make(map[int64]bool, len(c.Characters))
	for _, ch := range c.Characters {
		if ch.ID < 1 {
			return fmt.Errorf("seed: character %q has invalid id %d", ch.Name, ch.ID)
		}
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("seed: character %d has no name", ch.ID)
		}
		if characters[ch.ID] {
			return fmt.Errorf("seed: duplicate character id %d", ch.ID)
		}
		characters[ch.ID] = true
		if ch.PlanetID != nil && !planets[*ch.PlanetID] {
			return fmt.Errorf("seed: character %d references unknown planet %d", ch.ID, *ch.PlanetID)
		}
	}

	users := make(map[int64]bool, len(c.Users))
	emails := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u.ID < 1 {
			return fmt.Errorf("seed: user %q has invalid id %d", u.Email, u.ID)
		}
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" || !strings.Contains(email, "@") {
			return fmt.Errorf("seed: user %d has an invalid email %q", u.ID, u.Email)
		}
		if u.Password == "" {
			return fmt.Errorf("seed: user %d has no password", u.ID)
		}
		if users[u.ID] || emails[email] {
			return fmt.Errorf("seed: duplicate user %d (%s)", u.ID, u.Email)
		}
		users[u.ID] = true
		emails[email] = true
	}

	return nil
}

// Stats counts the fixture rows offered to the store. Rows that already
// existed are counted too, since the store skips them silently.
type Stats struct {
	Planets    int
	Characters int
	Users      int
}

// Seeder writes a Catalog into a store.
type Seeder struct {
	store  repository.Seeder
	hasher *auth.PasswordHasher
	logger *slog.Logger
}

func NewSeeder(store repository.Seeder, hasher *auth.PasswordHasher, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, hasher: hasher, logger: logger}
}

// Load inserts every fixture row. Existing rows (by id) are left untouched,
// so Load can run on every startup.
//
// Planets go first so character foreign keys resolve.
func (s *Seeder) Load(ctx context.Context, c *Catalog) (Stats, error) {
	var stats Stats

	for _, p := range c.Planets {
		planet := model.Planet{
			ID:             p.ID,
			Name:           p.Name,
			Diameter:       p.Diameter,
			RotationPeriod: p.RotationPeriod,
			Population:     p.Population,
			Terrain:        p.Terrain,
			SurfaceWater:   p.SurfaceWater,
			Climate:        p.Climate,
		}
		if err := s.store.SeedPlanet(ctx, &planet); err != nil {
			return stats, err
		}
		stats.Planets++
	}

	for _, ch := range c.Characters {
		character := model.Character{
			ID:        ch.ID,
			Name:      ch.Name,
			BirthYear: ch.BirthYear,
			Height:    ch.Height,
			Mass:      ch.Mass,
			Gender:    ch.Gender,
			PlanetID:  ch.PlanetID,
		}
		if err := s.store.SeedCharacter(ctx, &character); err != nil {
			return stats, err
		}
		stats.Characters++
	}

	for _, u := range c.Users {
		hash, err := s.hasher.HashIfPlain(u.Password)
		if err != nil {
			return stats, fmt.Errorf("seed: user %d: %w", u.ID, err)
		}
		user := model.User{
			ID:       u.ID,
			Email:    strings.TrimSpace(u.Email),
			Password: hash,
			IsActive: u.IsActive,
		}
		if err := s.store.SeedUser(ctx, &user); err != nil {
			return stats, err
		}
		stats.Users++
	}

	if err := s.store.ResetSequences(ctx); err != nil {
		return stats, err
	}

	s.logger.Info("catalog seeded",
		slog.Int("planets", stats.Planets),
		slog.Int("characters", stats.Characters),
		slog.Int("users", stats.Users),
	)
	return stats, nil
}
