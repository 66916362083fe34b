package models

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Username     *string   `db:"username" json:"username,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
