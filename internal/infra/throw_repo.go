package infra

import (
	"context"
	"log"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const throwColumns = `
	id, map_id, user_id, name, description,
	grenade_type, difficulty, team, throw_types,
	throw_point_x, throw_point_y, landing_point_x, landing_point_y,
	media_type, video_url, thumbnail_url, setup_image_url, aim_image_url, result_image_url,
	is_public, is_verified, created_at, updated_at
`

type PostgresThrowRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresThrowRepo(pool *pgxpool.Pool) ports.ThrowRepository {
	return &PostgresThrowRepo{pool: pool}
}

func scanThrow(row pgx.Row) (*models.GrenadeThrow, error) {
	var (
		t     models.GrenadeThrow
		types []string
	)
	err := row.Scan(
		&t.ID, &t.MapID, &t.UserID, &t.Name, &t.Description,
		&t.GrenadeType, &t.Difficulty, &t.Team, &types,
		&t.ThrowPointX, &t.ThrowPointY, &t.LandingPointX, &t.LandingPointY,
		&t.MediaType, &t.VideoURL, &t.ThumbnailURL, &t.SetupImageURL, &t.AimImageURL, &t.ResultImageURL,
		&t.IsPublic, &t.IsVerified, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ThrowTypes = make([]models.ThrowType, 0, len(types))
	for _, tt := range types {
		t.ThrowTypes = append(t.ThrowTypes, models.ThrowType(tt))
	}
	return &t, nil
}

func collectThrows(rows pgx.Rows) ([]models.GrenadeThrow, error) {
	defer rows.Close()

	throws := []models.GrenadeThrow{}
	for rows.Next() {
		t, err := scanThrow(rows)
		if err != nil {
			return nil, err
		}
		throws = append(throws, *t)
	}
	return throws, rows.Err()
}

func (r *PostgresThrowRepo) Insert(ctx context.Context, t *models.GrenadeThrow) (*models.GrenadeThrow, error) {
	types := make([]string, 0, len(t.ThrowTypes))
	for _, tt := range t.ThrowTypes {
		types = append(types, string(tt))
	}

	query := `
		INSERT INTO grenade_throws (
			id, map_id, user_id, name, description,
			grenade_type, difficulty, team, throw_types,
			throw_point_x, throw_point_y, landing_point_x, landing_point_y,
			media_type, video_url, thumbnail_url, setup_image_url, aim_image_url, result_image_url,
			is_public, is_verified
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + throwColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), t.MapID, t.UserID, t.Name, t.Description,
		string(t.GrenadeType), string(t.Difficulty), string(t.Team), types,
		t.ThrowPointX, t.ThrowPointY, t.LandingPointX, t.LandingPointY,
		string(t.MediaType), t.VideoURL, t.ThumbnailURL, t.SetupImageURL, t.AimImageURL, t.ResultImageURL,
		t.IsPublic, t.IsVerified,
	)
	created, err := scanThrow(row)
	if err != nil {
		return nil, pgErr("insert throw", err)
	}

	log.Printf("[DB][THROW] insert id=%s map=%s type=%s", created.ID, created.MapID, created.GrenadeType)
	return created, nil
}

func (r *PostgresThrowRepo) GetByID(ctx context.Context, id string) (*models.GrenadeThrow, error) {
	query := `SELECT ` + throwColumns + ` FROM grenade_throws WHERE id = $1`

	t, err := scanThrow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, pgErr("get throw by id", err)
	}
	return t, nil
}

func (r *PostgresThrowRepo) List(ctx context.Context, mapID string) ([]models.GrenadeThrow, error) {
	query := `
		SELECT ` + throwColumns + `
		FROM grenade_throws
		WHERE ($1 = '' OR map_id = $1)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, mapID)
	if err != nil {
		return nil, pgErr("list throws", err)
	}
	throws, err := collectThrows(rows)
	if err != nil {
		return nil, pgErr("list throws", err)
	}
	return throws, nil
}

func (r *PostgresThrowRepo) ListByUser(ctx context.Context, userID string) ([]models.GrenadeThrow, error) {
	query := `
		SELECT ` + throwColumns + `
		FROM grenade_throws
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, pgErr("list user throws", err)
	}
	throws, err := collectThrows(rows)
	if err != nil {
		return nil, pgErr("list user throws", err)
	}
	return throws, nil
}

func (r *PostgresThrowRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grenade_throws WHERE id = $1`, id)
	if err != nil {
		return pgErr("delete throw", err)
	}
	if tag.RowsAffected() == 0 {
		return pgErr("delete throw", pgx.ErrNoRows)
	}
	log.Printf("[DB][THROW] delete id=%s", id)
	return nil
}
