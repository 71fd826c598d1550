package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the resolved caller of a request.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
