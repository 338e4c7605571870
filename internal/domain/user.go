package domain

import "time"

// User is an account that owns goals and schedule blocks.
type User struct {
	ID           string
	Email        string
	Name         *string
	PasswordHash string
	CreatedAt    time.Time
}
