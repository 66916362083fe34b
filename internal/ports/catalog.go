package ports

import (
	"context"
	"io"

	"github.com/Vovarama1992/grenades/internal/models"
)

// Invalidation tells subscribers of Room which cached queries are stale.
type Invalidation struct {
	Room string
	Keys []string
}

type CatalogService interface {
	ListMaps(ctx context.Context) ([]models.Map, error)
	GetMap(ctx context.Context, id string) (*models.Map, error)
	ListThrows(ctx context.Context, mapID string) ([]models.GrenadeThrow, error)
	GetThrow(ctx context.Context, id string) (*models.GrenadeThrow, error)
	ListUserThrows(ctx context.Context, userID string) ([]models.GrenadeThrow, error)
	ListFavorites(ctx context.Context, userID string) ([]models.UserFavorite, error)

	CreateThrow(ctx context.Context, userID string, t *models.GrenadeThrow) (*models.GrenadeThrow, error)
	DeleteThrow(ctx context.Context, userID, throwID string) error
	ToggleFavorite(ctx context.Context, userID, throwID string) (bool, error)
	UploadMedia(ctx context.Context, userID, namespace, filename, contentType string, body io.Reader) (StoredMedia, error)
	// RemoveMedia deletes an object previously uploaded by userID.
	RemoveMedia(ctx context.Context, userID, objectPath string) error

	Events() <-chan Invalidation
}
