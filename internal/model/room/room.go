// Package room defines chat rooms and the room store.
package room

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAccessCode    = errors.New("private room requires an access code")
	ErrUnexpectedAccessCode = errors.New("public room must not carry an access code")
)

// Room is a chat space. Private rooms are joined with an access code.
type Room struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	IsPrivate  bool     `json:"isPrivate" yaml:"isPrivate"`
	AccessCode string   `json:"accessCode,omitempty" yaml:"accessCode,omitempty"`
	CreatedBy  string   `json:"createdBy" yaml:"createdBy"`
	Members    []string `json:"members" yaml:"members"`
}

// Validate checks the access code invariant.
func (r Room) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("room id is required")
	}
	code := strings.TrimSpace(r.AccessCode)
	if r.IsPrivate && code == "" {
		return fmt.Errorf("room %s: %w", r.ID, ErrMissingAccessCode)
	}
	if !r.IsPrivate && code != "" {
		return fmt.Errorf("room %s: %w", r.ID, ErrUnexpectedAccessCode)
	}
	return nil
}

// HasMember reports whether userID belongs to the room.
func (r Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Public returns the room with its access code hidden, for listings.
func (r Room) Public() Room {
	r.AccessCode = ""
	r.Members = append([]string(nil), r.Members...)
	return r
}

// Seed provides the demo rooms.
func Seed() []Room {
	return []Room{
		{
			ID:        "r1",
			Name:      "General Lounge",
			CreatedBy: "u1",
			Members:   []string{"u1", "u2", "u3", "u4"},
		},
		{
			ID:         "r2",
			Name:       "Dev Talk",
			IsPrivate:  true,
			AccessCode: "*1337#",
			CreatedBy:  "u3",
			Members:    []string{"u1", "u3"},
		},
		{
			ID:        "r3",
			Name:      "Gaming Hub",
			CreatedBy: "u2",
			Members:   []string{"u2", "u4"},
		},
	}
}
