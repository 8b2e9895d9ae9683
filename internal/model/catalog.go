package model

// Planet is a read-only catalog entity.
//
// WHY POINTERS FOR THE OPTIONAL COLUMNS?
// Every attribute except Name may be NULL in the store. database/sql scans NULL
// into a nil pointer, and encoding/json writes a nil pointer as `null`, so the
// JSON record mirrors the row exactly.
type Planet struct {
	ID             int64   `json:"id"              db:"id"`
	Name           string  `json:"name"            db:"name"`
	Diameter       *int64  `json:"diameter"        db:"diameter"`
	RotationPeriod *int64  `json:"rotation_period" db:"rotation_period"`
	Population     *string `json:"population"      db:"population"`
	Terrain        *string `json:"terrain"         db:"terrain"`
	SurfaceWater   *int64  `json:"surface_water"   db:"surface_water"`
	Climate        *string `json:"climate"         db:"climate"`
}

// Character is a read-only catalog entity.
// PlanetID is the raw foreign key to the homeworld, not the nested Planet.
type Character struct {
	ID        int64   `json:"id"         db:"id"`
	Name      string  `json:"name"       db:"name"`
	BirthYear *string `json:"birth_year" db:"birth_year"`
	Height    *int64  `json:"height"     db:"height"`
	Mass      *int64  `json:"mass"       db:"mass"`
	Gender    *string `json:"gender"     db:"gender"`
	PlanetID  *int64  `json:"planet_id"  db:"planet_id"`
}
