package domain

import (
	"time"

	"github.com/Vovarama1992/grenades/internal/models"
)

// NewThrowWindow is how long a throw is flagged as new after submission.
const NewThrowWindow = 14 * 24 * time.Hour

type ConnectionLine struct {
	ThrowID string       `json:"throw_id"`
	From    models.Point `json:"from"`
	To      models.Point `json:"to"`
}

type MapStats struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

type ThrowView struct {
	models.GrenadeThrow
	Favorite bool `json:"favorite"`
	New      bool `json:"new"`
}

type MapView struct {
	Map             models.Map       `json:"map"`
	Filter          ThrowFilter      `json:"filter"`
	Throws          []ThrowView      `json:"throws"`
	ThrowClusters   []Cluster        `json:"throw_clusters"`
	LandingClusters []Cluster        `json:"landing_clusters"`
	Lines           []ConnectionLine `json:"lines"`
	Stats           MapStats         `json:"stats"`
}

func IsNewThrow(t models.GrenadeThrow, now time.Time) bool {
	return t.CreatedAt.After(now.Add(-NewThrowWindow))
}

func BuildMapView(m models.Map, filter ThrowFilter, favorites FavoriteSet, now time.Time) MapView {
	filtered := filter.Apply(m.Throws, favorites)

	v := MapView{
		Map:             m,
		Filter:          filter,
		Throws:          make([]ThrowView, 0, len(filtered)),
		ThrowClusters:   GroupNearbyThrows(filtered, ThrowPointSide),
		LandingClusters: GroupNearbyThrows(filtered, LandingPointSide),
		Lines:           make([]ConnectionLine, 0, len(filtered)),
	}
	v.Map.Throws = nil

	for _, t := range filtered {
		v.Throws = append(v.Throws, ThrowView{
			GrenadeThrow: t,
			Favorite:     favorites.Has(t.ID),
			New:          IsNewThrow(t, now),
		})
		v.Lines = append(v.Lines, ConnectionLine{
			ThrowID: t.ID,
			From:    t.ThrowPoint(),
			To:      t.LandingPoint(),
		})

		v.Stats.Total++
		switch t.Difficulty {
		case models.DifficultyEasy:
			v.Stats.Easy++
		case models.DifficultyMedium:
			v.Stats.Medium++
		case models.DifficultyHard:
			v.Stats.Hard++
		}
	}
	return v
}
