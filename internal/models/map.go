package models

import "time"

type Map struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	DisplayName  string         `db:"display_name" json:"display_name"`
	ImageURL     string         `db:"image_url" json:"image_url"`
	ThumbnailURL string         `db:"thumbnail_url" json:"thumbnail_url"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	Throws       []GrenadeThrow `db:"-" json:"throws"` // loaded by join
}
