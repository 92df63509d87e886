package domain

import "time"

// Operator represents a dashboard account allowed to use the admin API.
type Operator struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}
