// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages
// but without inheritance. Go favours composition over inheritance.
package model

// User is the owner of favorites.
//
// Password holds a bcrypt hash, never a plaintext. Both Password and IsActive
// carry `json:"-"`: the public representation of a user is only {id, email}.
type User struct {
	ID       int64  `json:"id"    db:"id"`
	Email    string `json:"email" db:"email"` // unique
	Password string `json:"-"     db:"password"`
	IsActive bool   `json:"-"     db:"is_active"`
}
