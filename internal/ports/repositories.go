package ports

import (
	"context"

	"github.com/Vovarama1992/grenades/internal/models"
)

type MapRepository interface {
	// ListActiveWithThrows returns active maps ordered by created_at ascending,
	// each with its throws joined in.
	ListActiveWithThrows(ctx context.Context) ([]models.Map, error)
	GetWithThrows(ctx context.Context, id string) (*models.Map, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, m *models.Map) error
}

type ThrowRepository interface {
	Insert(ctx context.Context, t *models.GrenadeThrow) (*models.GrenadeThrow, error)
	GetByID(ctx context.Context, id string) (*models.GrenadeThrow, error)
	// List returns throws newest first; an empty mapID lists every map.
	List(ctx context.Context, mapID string) ([]models.GrenadeThrow, error)
	ListByUser(ctx context.Context, userID string) ([]models.GrenadeThrow, error)
	Delete(ctx context.Context, id string) error
}

type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UserFavorite, error)
	Exists(ctx context.Context, userID, throwID string) (bool, error)
	Insert(ctx context.Context, userID, throwID string) error
	Delete(ctx context.Context, userID, throwID string) error
}

type UserRepository interface {
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
