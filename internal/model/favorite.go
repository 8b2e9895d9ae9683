package model

// Kind names a catalog table that can be favorited.
type Kind string

const (
	KindCharacter Kind = "character"
	KindPlanet    Kind = "planet"
)

func (k Kind) String() string { return string(k) }

// Favorite records that a user favorited a catalog entity.
//
// Name is a copy of the entity's name taken when the favorite was created, and
// (UserID, Name) is unique in the store. Kind and EntityID remember which row
// the name came from; they are indexed for lookups by id but are not part of
// the public JSON record.
type Favorite struct {
	ID       int64  `json:"id"      db:"id"`
	Name     string `json:"name"    db:"name"`
	UserID   int64  `json:"user_id" db:"user_id"`
	Kind     Kind   `json:"-"       db:"kind"`
	EntityID int64  `json:"-"       db:"entity_id"`
}
