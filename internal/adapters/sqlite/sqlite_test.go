package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samirrijal/trailpace/internal/adapters/sqlite"
	"github.com/samirrijal/trailpace/internal/core/domain"
)

func openRepo(t *testing.T) *sqlite.PredictionRepo {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "trailpace.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return sqlite.NewPredictionRepo(db)
}

func samplePrediction(id string, created time.Time) *domain.Prediction {
	return &domain.Prediction{
		ID:         id,
		Name:       "Anboto",
		Model:      "hiking_speed@2024.1",
		PointCount: 3,
		Bounds:     domain.Bounds{MinLat: 43.08, MinLon: -2.6, MaxLat: 43.09, MaxLon: -2.59},
		Summary: domain.Summary{
			TotalDistanceKm: 1.2, TotalTimeHours: 0.4,
			ElevationGainM: 120, ElevationLossM: 5, AverageSpeedKmh: 3,
		},
		Segments: []domain.Segment{
			{DistanceKm: 0, PredictedSpeedKmh: 3.1, CumulativeTimeHours: 0.2, SegmentDistanceM: 600},
			{DistanceKm: 0.6, PredictedSpeedKmh: 2.9, StartTimeHours: 0.2, CumulativeTimeHours: 0.4, SegmentDistanceM: 600},
		},
		CreatedAt: created,
	}
}

func TestPredictionRepo_SaveAndGet(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	if err := repo.Save(ctx, samplePrediction("p1", created)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Anboto" || got.ElevationGainM != 120 {
		t.Errorf("unexpected prediction %+v", got)
	}
	if len(got.Segments) != 2 || got.Segments[1].StartTimeHours != 0.2 {
		t.Errorf("segments not restored: %+v", got.Segments)
	}
	if got.Bounds.MaxLon != -2.59 {
		t.Errorf("bounds not restored: %+v", got.Bounds)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected %v, got %v", created, got.CreatedAt)
	}
}

func TestPredictionRepo_GetMissing(t *testing.T) {
	repo := openRepo(t)
	if _, err := repo.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPredictionRepo_ListRecent(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := repo.Save(ctx, samplePrediction(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := repo.ListRecent(ctx, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(items) != 2 || items[0].ID != "c" || items[1].ID != "b" {
		t.Errorf("expected newest first [c b], got %+v", items)
	}

	items, _, _ = repo.ListRecent(ctx, 2, 2)
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("expected [a] on second page, got %+v", items)
	}
}

func TestPredictionRepo_SaveIdempotent(t *testing.T) {
	repo := openRepo(t)
	ctx := context.Background()
	p := samplePrediction("dup", time.Now().UTC())
	if err := repo.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, p); err != nil {
		t.Errorf("second save of the same id should be ignored, got %v", err)
	}
}
