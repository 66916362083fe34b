package infra

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const (
	placeholderImage = "/placeholder.svg"
	sampleVideo      = "https://www.youtube.com/embed/dQw4w9WgXcQ"
)

func sampleThrow(name, description string, g models.GrenadeType, d models.Difficulty, team models.Team, from, to models.Point) models.GrenadeThrow {
	video, thumb := sampleVideo, placeholderImage
	return models.GrenadeThrow{
		Name:          name,
		Description:   &description,
		GrenadeType:   g,
		Difficulty:    d,
		Team:          team,
		ThrowTypes:    []models.ThrowType{models.ThrowStanding},
		ThrowPointX:   from.X,
		ThrowPointY:   from.Y,
		LandingPointX: to.X,
		LandingPointY: to.Y,
		MediaType:     models.MediaVideo,
		VideoURL:      &video,
		ThumbnailURL:  &thumb,
		IsPublic:      true,
		IsVerified:    true,
	}
}

// DefaultMaps seed an empty catalog, each with its starter lineups.
var DefaultMaps = []models.Map{
	{
		ID: "dust2", Name: "dust2", DisplayName: "Dust II",
		ImageURL: placeholderImage, ThumbnailURL: placeholderImage, IsActive: true,
		Throws: []models.GrenadeThrow{
			sampleThrow("Xbox Smoke", "Smoke to block the Xbox position", models.GrenadeSmoke, models.DifficultyEasy, models.TeamCT,
				models.Point{X: 20, Y: 30}, models.Point{X: 60, Y: 40}),
			sampleThrow("Long Flash", "Flash for pushing long", models.GrenadeFlash, models.DifficultyMedium, models.TeamT,
				models.Point{X: 15, Y: 25}, models.Point{X: 80, Y: 20}),
			sampleThrow("Site HE", "HE to clear the site", models.GrenadeHE, models.DifficultyHard, models.TeamT,
				models.Point{X: 40, Y: 70}, models.Point{X: 70, Y: 80}),
		},
	},
	{
		ID: "mirage", Name: "mirage", DisplayName: "Mirage",
		ImageURL: placeholderImage, ThumbnailURL: placeholderImage, IsActive: true,
		Throws: []models.GrenadeThrow{
			sampleThrow("Connector Smoke", "Smoke to block connector", models.GrenadeSmoke, models.DifficultyMedium, models.TeamCT,
				models.Point{X: 30, Y: 40}, models.Point{X: 50, Y: 50}),
			sampleThrow("Default Molly", "Molotov for the default plant", models.GrenadeMolotov, models.DifficultyEasy, models.TeamT,
				models.Point{X: 60, Y: 30}, models.Point{X: 80, Y: 60}),
		},
	},
	{
		ID: "inferno", Name: "inferno", DisplayName: "Inferno",
		ImageURL: placeholderImage, ThumbnailURL: placeholderImage, IsActive: true,
		Throws: []models.GrenadeThrow{
			sampleThrow("Balcony Smoke", "Smoke to block balcony", models.GrenadeSmoke, models.DifficultyHard, models.TeamT,
				models.Point{X: 25, Y: 35}, models.Point{X: 45, Y: 25}),
		},
	},
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Seed inserts maps and their throws when the catalog has none. It returns
// how many maps were inserted.
func Seed(ctx context.Context, maps ports.MapRepository, throws ports.ThrowRepository, seed []models.Map) (int, error) {
	n, err := maps.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i := range seed {
		m := seed[i]
		m.Throws = nil
		if err := maps.Insert(ctx, &m); err != nil {
			return i, fmt.Errorf("seed map %s: %w", m.Name, err)
		}

		for _, t := range seed[i].Throws {
			t.MapID = m.ID
			if _, err := throws.Insert(ctx, &t); err != nil {
				return i, fmt.Errorf("seed throw %s on %s: %w", t.Name, m.Name, err)
			}
		}
	}
	return len(seed), nil
}
