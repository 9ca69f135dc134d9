package domain

import "time"

// Account es una cuenta registrada con email y password.
type Account struct {
	Identifier     string    `json:"email"`
	CredentialHash string    `json:"password"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}
