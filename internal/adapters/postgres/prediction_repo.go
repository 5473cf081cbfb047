package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// PredictionRepo implements ports.PredictionRepository.
type PredictionRepo struct {
	db *DB
}

func NewPredictionRepo(db *DB) *PredictionRepo {
	return &PredictionRepo{db: db}
}

func (r *PredictionRepo) Save(ctx context.Context, p *domain.Prediction) error {
	bounds, err := json.Marshal(p.Bounds)
	if err != nil {
		return fmt.Errorf("encode bounds: %w", err)
	}
	segments, err := json.Marshal(p.Segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO predictions (id, name, model, point_count,
			total_distance_km, total_time_hours, elevation_gain_m, elevation_loss_m, average_speed_kmh,
			bounds, segments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Name, p.Model, p.PointCount,
		p.TotalDistanceKm, p.TotalTimeHours, p.ElevationGainM, p.ElevationLossM, p.AverageSpeedKmh,
		bounds, segments, p.CreatedAt)
	return err
}

func (r *PredictionRepo) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	p := &domain.Prediction{}
	var bounds, segments []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id::text, name, model, point_count,
			total_distance_km, total_time_hours, elevation_gain_m, elevation_loss_m, average_speed_kmh,
			bounds, segments, created_at
		FROM predictions WHERE id::text = $1
	`, id).Scan(&p.ID, &p.Name, &p.Model, &p.PointCount,
		&p.TotalDistanceKm, &p.TotalTimeHours, &p.ElevationGainM, &p.ElevationLossM, &p.AverageSpeedKmh,
		&bounds, &segments, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(bounds, &p.Bounds); err != nil {
		return nil, fmt.Errorf("decode bounds: %w", err)
	}
	if err := json.Unmarshal(segments, &p.Segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return p, nil
}

func (r *PredictionRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, name, model, point_count,
			total_distance_km, total_time_hours, elevation_gain_m, elevation_loss_m, average_speed_kmh,
			created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []domain.PredictionOverview{}
	for rows.Next() {
		var o domain.PredictionOverview
		if err := rows.Scan(&o.ID, &o.Name, &o.Model, &o.PointCount,
			&o.TotalDistanceKm, &o.TotalTimeHours, &o.ElevationGainM, &o.ElevationLossM, &o.AverageSpeedKmh,
			&o.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
