package models

import "github.com/google/uuid"

// User is the identity a transport hands to the core when seating someone.
// Users are ephemeral: they exist for as long as their signed session token does.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func (u User) String() string {
	if u.Username == "" {
		return u.ID.String()
	}
	return u.Username
}
