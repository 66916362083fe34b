package infra

import (
	"context"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresFavoriteRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresFavoriteRepo(pool *pgxpool.Pool) ports.FavoriteRepository {
	return &PostgresFavoriteRepo{pool: pool}
}

// ListByUser returns the user's favorites with the favorited throw joined in.
func (r *PostgresFavoriteRepo) ListByUser(ctx context.Context, userID string) ([]models.UserFavorite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.user_id, f.throw_id, f.created_at
		FROM user_favorites f
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, pgErr("list favorites", err)
	}
	defer rows.Close()

	favs := []models.UserFavorite{}
	ids := []string{}
	for rows.Next() {
		var f models.UserFavorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ThrowID, &f.CreatedAt); err != nil {
			return nil, pgErr("scan favorite", err)
		}
		favs = append(favs, f)
		ids = append(ids, f.ThrowID)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("list favorites", err)
	}
	if len(ids) == 0 {
		return favs, nil
	}

	throwRows, err := r.pool.Query(ctx, `SELECT `+throwColumns+` FROM grenade_throws WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, pgErr("join favorite throws", err)
	}
	throws, err := collectThrows(throwRows)
	if err != nil {
		return nil, pgErr("join favorite throws", err)
	}

	byID := make(map[string]*models.GrenadeThrow, len(throws))
	for i := range throws {
		byID[throws[i].ID] = &throws[i]
	}
	for i := range favs {
		favs[i].Throw = byID[favs[i].ThrowID]
	}
	return favs, nil
}

func (r *PostgresFavoriteRepo) Exists(ctx context.Context, userID, throwID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_favorites WHERE user_id = $1 AND throw_id = $2)
	`, userID, throwID).Scan(&ok)
	if err != nil {
		return false, pgErr("favorite exists", err)
	}
	return ok, nil
}

func (r *PostgresFavoriteRepo) Insert(ctx context.Context, userID, throwID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_favorites (id, user_id, throw_id)
		VALUES ($1, $2, $3)
	`, uuid.NewString(), userID, throwID)
	if err != nil {
		return pgErr("insert favorite", err)
	}
	return nil
}

func (r *PostgresFavoriteRepo) Delete(ctx context.Context, userID, throwID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_favorites
		WHERE user_id = $1 AND throw_id = $2
	`, userID, throwID)
	if err != nil {
		return pgErr("delete favorite", err)
	}
	if tag.RowsAffected() == 0 {
		return pgErr("delete favorite", pgx.ErrNoRows)
	}
	return nil
}
