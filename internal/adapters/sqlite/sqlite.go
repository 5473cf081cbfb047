// Package sqlite stores prediction history in a local SQLite file, for
// single-node deployments and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS predictions (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    model             TEXT NOT NULL,
    point_count       INTEGER NOT NULL,
    total_distance_km REAL NOT NULL,
    total_time_hours  REAL NOT NULL,
    elevation_gain_m  REAL NOT NULL,
    elevation_loss_m  REAL NOT NULL,
    average_speed_kmh REAL NOT NULL,
    bounds            TEXT NOT NULL,
    segments          TEXT NOT NULL,
    created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC);
`

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps an sqlx handle on a SQLite database.
type DB struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &DB{db: db}, nil
}

// Migrate creates the schema.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// Ping checks the database is usable.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// predictionRow is the table layout.
type predictionRow struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	Model           string  `db:"model"`
	PointCount      int     `db:"point_count"`
	TotalDistanceKm float64 `db:"total_distance_km"`
	TotalTimeHours  float64 `db:"total_time_hours"`
	ElevationGainM  float64 `db:"elevation_gain_m"`
	ElevationLossM  float64 `db:"elevation_loss_m"`
	AverageSpeedKmh float64 `db:"average_speed_kmh"`
	Bounds          string  `db:"bounds"`
	Segments        string  `db:"segments"`
	CreatedAt       string  `db:"created_at"`
}

func (r predictionRow) summary() domain.Summary {
	return domain.Summary{
		TotalDistanceKm: r.TotalDistanceKm,
		TotalTimeHours:  r.TotalTimeHours,
		ElevationGainM:  r.ElevationGainM,
		ElevationLossM:  r.ElevationLossM,
		AverageSpeedKmh: r.AverageSpeedKmh,
	}
}

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

	row := predictionRow{
		ID:              p.ID,
		Name:            p.Name,
		Model:           p.Model,
		PointCount:      p.PointCount,
		TotalDistanceKm: p.TotalDistanceKm,
		TotalTimeHours:  p.TotalTimeHours,
		ElevationGainM:  p.ElevationGainM,
		ElevationLossM:  p.ElevationLossM,
		AverageSpeedKmh: p.AverageSpeedKmh,
		Bounds:          string(bounds),
		Segments:        string(segments),
		CreatedAt:       p.CreatedAt.UTC().Format(timeLayout),
	}
	_, err = r.db.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO predictions (id, name, model, point_count,
			total_distance_km, total_time_hours, elevation_gain_m, elevation_loss_m, average_speed_kmh,
			bounds, segments, created_at)
		VALUES (:id, :name, :model, :point_count,
			:total_distance_km, :total_time_hours, :elevation_gain_m, :elevation_loss_m, :average_speed_kmh,
			:bounds, :segments, :created_at)
	`, row)
	return err
}

func (r *PredictionRepo) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	var row predictionRow
	err := r.db.db.GetContext(ctx, &row, `SELECT * FROM predictions WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	created, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	p := &domain.Prediction{
		ID:         row.ID,
		Name:       row.Name,
		Model:      row.Model,
		PointCount: row.PointCount,
		Summary:    row.summary(),
		CreatedAt:  created,
	}
	if err := json.Unmarshal([]byte(row.Bounds), &p.Bounds); err != nil {
		return nil, fmt.Errorf("decode bounds: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Segments), &p.Segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return p, nil
}

func (r *PredictionRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error) {
	var total int
	if err := r.db.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM predictions`); err != nil {
		return nil, 0, err
	}

	var rows []predictionRow
	err := r.db.db.SelectContext(ctx, &rows, `
		SELECT id, name, model, point_count,
			total_distance_km, total_time_hours, elevation_gain_m, elevation_loss_m, average_speed_kmh,
			'' AS bounds, '' AS segments, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	items := make([]domain.PredictionOverview, 0, len(rows))
	for _, row := range rows {
		created, err := time.Parse(timeLayout, row.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("decode created_at: %w", err)
		}
		items = append(items, domain.PredictionOverview{
			ID:         row.ID,
			Name:       row.Name,
			Model:      row.Model,
			PointCount: row.PointCount,
			Summary:    row.summary(),
			CreatedAt:  created,
		})
	}
	return items, total, nil
}
