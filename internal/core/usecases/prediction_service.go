package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/ports"
	"github.com/samirrijal/trailpace/internal/core/terrain"
	"github.com/samirrijal/trailpace/internal/pkg/metrics"
	"github.com/samirrijal/trailpace/internal/pkg/telemetry"
)

const (
	defaultCacheTTL = 3600
	maxListLimit    = 100
)

var tracer = otel.Tracer("github.com/samirrijal/trailpace/internal/core/usecases")

// PredictionService runs route predictions against one loaded model and
// records them. Cache, history and events are optional; their failures are
// logged and never change a prediction's outcome.
type PredictionService struct {
	model    ports.SpeedModel
	info     domain.ModelInfo
	layout   domain.FeatureLayout
	opts     Options
	repo     ports.PredictionRepository
	cache    ports.CacheService
	events   ports.EventPublisher
	cacheTTL int
}

// NewPredictionService validates the model's feature columns against the
// features this service can build and returns a ModelUnavailable error on
// mismatch. repo, cache and events may be nil.
func NewPredictionService(
	model ports.SpeedModel,
	opts Options,
	repo ports.PredictionRepository,
	cache ports.CacheService,
	events ports.EventPublisher,
) (*PredictionService, error) {
	if model == nil {
		return nil, domain.ModelUnavailable("Prediction model not loaded", nil)
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("prediction options: %w", err)
	}
	info := model.Info()
	layout, err := domain.NewFeatureLayout(info.FeatureColumns)
	if err != nil {
		return nil, domain.ModelUnavailable(fmt.Sprintf("model %s has an unusable feature layout", info.Label()), err)
	}
	return &PredictionService{
		model:    model,
		info:     info,
		layout:   layout,
		opts:     opts,
		repo:     repo,
		cache:    cache,
		events:   events,
		cacheTTL: defaultCacheTTL,
	}, nil
}

// WithCacheTTL overrides how long predictions stay cached.
func (s *PredictionService) WithCacheTTL(seconds int) *PredictionService {
	if seconds > 0 {
		s.cacheTTL = seconds
	}
	return s
}

// ModelInfo describes the loaded model.
func (s *PredictionService) ModelInfo() domain.ModelInfo { return s.info }

// Predict runs the route pipeline for points in hiking order. Identical
// routes submitted under the same name are served from cache.
func (s *PredictionService) Predict(ctx context.Context, name string, points []domain.RoutePoint) (*domain.Prediction, error) {
	ctx, span := tracer.Start(ctx, "PredictionService.Predict", trace.WithAttributes(
		telemetry.AttrRoutePoints.Int(len(points)),
		telemetry.AttrModel.String(s.info.Label()),
	))
	defer span.End()

	start := time.Now()
	key := s.cacheKey(name, points)
	if p := s.cached(ctx, key); p != nil {
		span.SetAttributes(telemetry.AttrCacheHit.Bool(true))
		metrics.PredictionsTotal.WithLabelValues("cached").Inc()
		return p, nil
	}

	p, floored, err := s.run(ctx, name, points)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := domain.KindOf(err)
		metrics.PredictionsTotal.WithLabelValues(string(kind)).Inc()
		span.RecordError(err)
		span.SetAttributes(telemetry.AttrPredictionKind.String(string(kind)))
		span.SetStatus(codes.Error, string(kind))
		return nil, err
	}

	metrics.PredictionsTotal.WithLabelValues("success").Inc()
	metrics.RouteSegments.Observe(float64(len(p.Segments)))
	if floored > 0 {
		metrics.SpeedFloorApplied.Add(float64(floored))
	}
	span.SetAttributes(
		telemetry.AttrPredictionID.String(p.ID),
		telemetry.AttrRouteSegments.Int(len(p.Segments)),
		telemetry.AttrRouteHours.Float64(p.TotalTimeHours),
	)

	s.record(ctx, key, p)
	return p, nil
}

func (s *PredictionService) run(ctx context.Context, name string, points []domain.RoutePoint) (*domain.Prediction, int, error) {
	prof, err := terrain.BuildProfile(points)
	if err != nil {
		return nil, 0, err
	}
	smoothed := terrain.SmoothElevation(prof.Elevations, prof.Distances, s.opts.WindowM)

	integ, err := Integrate(ctx, s.model, s.layout, prof, smoothed, s.opts)
	if err != nil {
		if errors.Is(err, domain.ErrPredictionFailure) {
			metrics.ModelInferenceErrors.Inc()
		}
		return nil, 0, err
	}

	return &domain.Prediction{
		ID:         uuid.NewString(),
		Name:       name,
		Model:      s.info.Label(),
		PointCount: len(points),
		Bounds:     domain.BoundsOf(points),
		Summary:    Summarize(prof, smoothed, integ.TotalTimeHours),
		Segments:   integ.Segments,
		CreatedAt:  time.Now().UTC(),
	}, integ.FloorApplied, nil
}

// record stores, caches and announces a fresh prediction.
func (s *PredictionService) record(ctx context.Context, key string, p *domain.Prediction) {
	if s.repo != nil {
		if err := s.repo.Save(ctx, p); err != nil {
			slog.WarnContext(ctx, "save prediction failed", "id", p.ID, "error", err)
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				slog.WarnContext(ctx, "cache prediction failed", "id", p.ID, "error", err)
			}
			_ = s.cache.Set(ctx, "predictions:id:"+p.ID, data, s.cacheTTL)
		}
	}

	if s.events != nil {
		if err := s.events.PublishPrediction(ctx, p); err != nil {
			slog.WarnContext(ctx, "publish prediction failed", "id", p.ID, "error", err)
		}
	}
}

func (s *PredictionService) cached(ctx context.Context, key string) *domain.Prediction {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("prediction").Inc()
		return nil
	}
	var p domain.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		metrics.CacheMisses.WithLabelValues("prediction").Inc()
		return nil
	}
	metrics.CacheHits.WithLabelValues("prediction").Inc()
	return &p
}

// cacheKey fingerprints the model, the route name and the exact point bits.
func (s *PredictionService) cacheKey(name string, points []domain.RoutePoint) string {
	h := sha256.New()
	h.Write([]byte(s.info.Label()))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})
	var buf [24]byte
	for _, p := range points {
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(p.Lat))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Lon))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(p.Elevation))
		h.Write(buf[:])
	}
	return "predictions:route:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns a stored prediction by ID.
func (s *PredictionService) Get(ctx context.Context, id string) (*domain.Prediction, error) {
	cacheKey := "predictions:id:" + id
	if p := s.cached(ctx, cacheKey); p != nil {
		return p, nil
	}
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	return p, nil
}

// List returns recent prediction overviews and the total stored.
func (s *PredictionService) List(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if s.repo == nil {
		return []domain.PredictionOverview{}, 0, nil
	}

	items, total, err := s.repo.ListRecent(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list predictions: %w", err)
	}
	return items, total, nil
}
