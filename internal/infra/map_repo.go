package infra

import (
	"context"

	"github.com/Vovarama1992/grenades/internal/models"
	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresMapRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMapRepo(pool *pgxpool.Pool) ports.MapRepository {
	return &PostgresMapRepo{pool: pool}
}

func (r *PostgresMapRepo) ListActiveWithThrows(ctx context.Context) ([]models.Map, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, display_name, image_url, thumbnail_url, is_active, created_at
		FROM maps
		WHERE is_active
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, pgErr("list maps", err)
	}
	defer rows.Close()

	maps := []models.Map{}
	ids := []string{}
	for rows.Next() {
		var m models.Map
		if err := rows.Scan(&m.ID, &m.Name, &m.DisplayName, &m.ImageURL, &m.ThumbnailURL, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, pgErr("scan map", err)
		}
		m.Throws = []models.GrenadeThrow{}
		maps = append(maps, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("list maps", err)
	}
	if len(ids) == 0 {
		return maps, nil
	}

	throwRows, err := r.pool.Query(ctx, `
		SELECT `+throwColumns+`
		FROM grenade_throws
		WHERE map_id = ANY($1)
		ORDER BY created_at ASC
	`, ids)
	if err != nil {
		return nil, pgErr("join throws", err)
	}
	throws, err := collectThrows(throwRows)
	if err != nil {
		return nil, pgErr("join throws", err)
	}

	index := make(map[string]int, len(maps))
	for i, m := range maps {
		index[m.ID] = i
	}
	for _, t := range throws {
		i := index[t.MapID]
		maps[i].Throws = append(maps[i].Throws, t)
	}
	return maps, nil
}

func (r *PostgresMapRepo) GetWithThrows(ctx context.Context, id string) (*models.Map, error) {
	var m models.Map
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, display_name, image_url, thumbnail_url, is_active, created_at
		FROM maps
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.DisplayName, &m.ImageURL, &m.ThumbnailURL, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, pgErr("get map", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+throwColumns+`
		FROM grenade_throws
		WHERE map_id = $1
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		return nil, pgErr("map throws", err)
	}
	m.Throws, err = collectThrows(rows)
	if err != nil {
		return nil, pgErr("map throws", err)
	}
	return &m, nil
}

func (r *PostgresMapRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM maps`).Scan(&n); err != nil {
		return 0, pgErr("count maps", err)
	}
	return n, nil
}

func (r *PostgresMapRepo) Insert(ctx context.Context, m *models.Map) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO maps (id, name, display_name, image_url, thumbnail_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.Name, m.DisplayName, m.ImageURL, m.ThumbnailURL, m.IsActive).Scan(&m.CreatedAt)
	if err != nil {
		return pgErr("insert map", err)
	}
	return nil
}
