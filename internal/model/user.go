package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an account with its profile. Bundesland is the German federal
// state shaping generated exam content; it may be empty, in which case the
// submission pipeline substitutes the configured default.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Bundesland   string    `json:"bundesland"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Bundeslaender lists the 16 German federal states accepted by the
// custom "bundesland" validation rule.
var Bundeslaender = []string{
	"Baden-Württemberg",
	"Bayern",
	"Berlin",
	"Brandenburg",
	"Bremen",
	"Hamburg",
	"Hessen",
	"Mecklenburg-Vorpommern",
	"Niedersachsen",
	"Nordrhein-Westfalen",
	"Rheinland-Pfalz",
	"Saarland",
	"Sachsen",
	"Sachsen-Anhalt",
	"Schleswig-Holstein",
	"Thüringen",
}

// IsBundesland reports whether s names a German federal state.
func IsBundesland(s string) bool {
	for _, b := range Bundeslaender {
		if b == s {
			return true
		}
	}
	return false
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Bundesland string `json:"bundesland" binding:"omitempty,bundesland"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest updates the mutable profile fields.
type UpdateProfileRequest struct {
	Name       string `json:"name" binding:"omitempty,min=2,max=100"`
	Bundesland string `json:"bundesland" binding:"omitempty,bundesland"`
}
