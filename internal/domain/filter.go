package domain

import "github.com/Vovarama1992/grenades/internal/models"

const FilterAll = "all"

type ThrowFilter struct {
	Type          string `json:"type"`
	Team          string `json:"team"`
	FavoritesOnly bool   `json:"favorites"`
}

// FavoriteSet holds the throw ids a user has favorited.
type FavoriteSet map[string]struct{}

func NewFavoriteSet(favs []models.UserFavorite) FavoriteSet {
	set := make(FavoriteSet, len(favs))
	for _, f := range favs {
		set[f.ThrowID] = struct{}{}
	}
	return set
}

func (s FavoriteSet) Has(throwID string) bool {
	_, ok := s[throwID]
	return ok
}

func (f ThrowFilter) Match(t models.GrenadeThrow, favorites FavoriteSet) bool {
	typeMatch := f.Type == "" || f.Type == FilterAll || f.Type == string(t.GrenadeType)
	teamMatch := f.Team == "" || f.Team == FilterAll || f.Team == string(t.Team) || t.Team == models.TeamBoth
	favoriteMatch := !f.FavoritesOnly || favorites.Has(t.ID)
	return typeMatch && teamMatch && favoriteMatch
}

func (f ThrowFilter) Apply(throws []models.GrenadeThrow, favorites FavoriteSet) []models.GrenadeThrow {
	out := make([]models.GrenadeThrow, 0, len(throws))
	for _, t := range throws {
		if f.Match(t, favorites) {
			out = append(out, t)
		}
	}
	return out
}
