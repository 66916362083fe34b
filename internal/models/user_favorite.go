package models

import "time"

type UserFavorite struct {
	ID        string        `db:"id" json:"id"`
	UserID    string        `db:"user_id" json:"user_id"`
	ThrowID   string        `db:"throw_id" json:"throw_id"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	Throw     *GrenadeThrow `db:"-" json:"grenade_throws,omitempty"`
}
