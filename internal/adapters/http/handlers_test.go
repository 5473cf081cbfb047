package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/trailpace/internal/adapters/http"
	"github.com/samirrijal/trailpace/internal/core/domain"
	"github.com/samirrijal/trailpace/internal/core/ports"
	"github.com/samirrijal/trailpace/internal/core/usecases"
)

// ---- Mocks ----

type mockModel struct {
	predictFn func(ctx context.Context, x []float64) (float64, error)
}

func (m *mockModel) Info() domain.ModelInfo {
	return domain.ModelInfo{Name: "stub", Version: "test", Kind: "stub", FeatureColumns: domain.FeatureNames}
}

func (m *mockModel) Predict(ctx context.Context, x []float64) (float64, error) {
	if m.predictFn != nil {
		return m.predictFn(ctx, x)
	}
	return 5, nil
}

type mockPredictionRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Prediction, error)
	listFn    func(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error)
}

func (m *mockPredictionRepo) Save(ctx context.Context, p *domain.Prediction) error { return nil }
func (m *mockPredictionRepo) GetByID(ctx context.Context, id string) (*domain.Prediction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockPredictionRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(t *testing.T, model *mockModel, repo *mockPredictionRepo) *handler.Dependencies {
	t.Helper()
	if model == nil {
		model = &mockModel{}
	}
	var store ports.PredictionRepository
	if repo != nil {
		store = repo
	}
	svc, err := usecases.NewPredictionService(model, usecases.DefaultOptions(), store, nil, nil)
	if err != nil {
		t.Fatalf("prediction service: %v", err)
	}
	return &handler.Dependencies{Predictions: svc, Version: "test"}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func equatorJSON(n int) string {
	pts := make([]string, n)
	for i := range pts {
		pts[i] = fmt.Sprintf(`{"lat":0,"lon":%g,"ele":0}`, float64(i)*0.001)
	}
	return `{"name":"equator","points":[` + strings.Join(pts, ",") + `]}`
}

const ridgeGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Ridge</name>
    <trkseg>
      <trkpt lat="43.0000" lon="-2.0000"><ele>100</ele></trkpt>
      <trkpt lat="43.0010" lon="-2.0000"><ele>110</ele></trkpt>
      <trkpt lat="43.0020" lon="-2.0000"><ele>125</ele></trkpt>
      <trkpt lat="43.0030" lon="-2.0000"><ele>120</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

func storedPrediction() *domain.Prediction {
	return &domain.Prediction{
		ID:         "p1",
		Name:       "stored",
		Model:      "stub@test",
		PointCount: 3,
		Summary:    domain.Summary{TotalDistanceKm: 1, TotalTimeHours: 0.25, AverageSpeedKmh: 4},
		Segments: []domain.Segment{
			{DistanceKm: 0, PredictedSpeedKmh: 4, CumulativeTimeHours: 0.125, CumulativeDistanceKm: 0},
			{DistanceKm: 0.5, PredictedSpeedKmh: 4, CumulativeTimeHours: 0.25, CumulativeDistanceKm: 0.5},
		},
		CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// ---- Create prediction ----

func TestCreatePrediction_JSON(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", strings.NewReader(equatorJSON(10)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out struct {
		Success        bool             `json:"success"`
		ID             string           `json:"id"`
		Name           string           `json:"name"`
		TotalTimeHours float64          `json:"total_time_hours"`
		FormattedTime  string           `json:"formatted_time"`
		Segments       []domain.Segment `json:"segments"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.ID == "" {
		t.Errorf("expected success with an ID, got %+v", out)
	}
	if out.Name != "equator" {
		t.Errorf("expected name equator, got %q", out.Name)
	}
	if len(out.Segments) != 9 {
		t.Errorf("expected 9 segments, got %d", len(out.Segments))
	}
	if out.FormattedTime != domain.FormatDuration(out.TotalTimeHours) {
		t.Errorf("formatted time %q does not match %v h", out.FormattedTime, out.TotalTimeHours)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/predictions/"+out.ID {
		t.Errorf("unexpected Location %q", loc)
	}
}

func TestCreatePrediction_RawGPX(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", strings.NewReader(ridgeGPX))
	req.Header.Set("Content-Type", "application/gpx+xml")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out map[string]interface{}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if out["name"] != "Ridge" {
		t.Errorf("expected GPX track name, got %v", out["name"])
	}
	if out["point_count"] != float64(4) {
		t.Errorf("expected 4 points, got %v", out["point_count"])
	}
}

func TestCreatePrediction_Multipart(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "ridge.gpx")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(ridgeGPX))
	w.Close()

	req := httptest.NewRequest("POST", "/v1/predictions?name=Override", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out map[string]interface{}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if out["name"] != "Override" {
		t.Errorf("expected query name to win, got %v", out["name"])
	}
}

func TestCreatePrediction_InvalidGPX(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", strings.NewReader("<gpx><trk>"))
	req.Header.Set("Content-Type", "application/gpx+xml")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCreatePrediction_TooFewPoints(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", strings.NewReader(equatorJSON(1)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.Unmarshal(readBody(t, resp.Body), &apiErr)
	if apiErr.Code != string(domain.KindInsufficientPoints) {
		t.Errorf("expected code insufficient_points, got %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "too few points") {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestCreatePrediction_ModelError(t *testing.T) {
	model := &mockModel{predictFn: func(context.Context, []float64) (float64, error) {
		return 0, errors.New("tree exploded")
	}}
	app := setupApp(makeDeps(t, model, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", strings.NewReader(equatorJSON(5)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.Unmarshal(readBody(t, resp.Body), &apiErr)
	if apiErr.Code != string(domain.KindPredictionFailure) {
		t.Errorf("expected code prediction_failure, got %q", apiErr.Code)
	}
}

func TestCreatePrediction_EmptyBody(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("POST", "/v1/predictions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Stored predictions ----

func TestGetPrediction_NotFound(t *testing.T) {
	app := setupApp(makeDeps(t, nil, &mockPredictionRepo{}))

	req := httptest.NewRequest("GET", "/v1/predictions/missing", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected errors to be no-store, got %q", cc)
	}
}

func TestGetPrediction_Success(t *testing.T) {
	repo := &mockPredictionRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Prediction, error) {
			if id != "p1" {
				return nil, domain.ErrNotFound
			}
			return storedPrediction(), nil
		},
	}
	app := setupApp(makeDeps(t, nil, repo))

	req := httptest.NewRequest("GET", "/v1/predictions/p1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out map[string]interface{}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if out["id"] != "p1" || out["success"] != true {
		t.Errorf("unexpected body %v", out)
	}
	if out["formatted_time"] != "0h 15m" {
		t.Errorf("expected 0h 15m, got %v", out["formatted_time"])
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "immutable") {
		t.Errorf("expected immutable Cache-Control, got %q", cc)
	}
}

func TestPredictionCharts(t *testing.T) {
	repo := &mockPredictionRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Prediction, error) {
			return storedPrediction(), nil
		},
	}
	app := setupApp(makeDeps(t, nil, repo))

	req := httptest.NewRequest("GET", "/v1/predictions/p1/charts", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var charts domain.Charts
	json.Unmarshal(readBody(t, resp.Body), &charts)
	if len(charts.DistanceOverTime) != 2 || len(charts.SpeedProfile) != 2 {
		t.Fatalf("expected 2 points per series, got %+v", charts)
	}
	if charts.DistanceOverTime[1].X != 0.25 {
		t.Errorf("expected last x 0.25 h, got %v", charts.DistanceOverTime[1].X)
	}
}

func TestListPredictions_LinkHeader(t *testing.T) {
	items := make([]domain.PredictionOverview, 10)
	for i := range items {
		items[i] = domain.PredictionOverview{ID: fmt.Sprintf("p%d", i)}
	}
	repo := &mockPredictionRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.PredictionOverview, int, error) {
			end := min(offset+limit, len(items))
			return items[offset:end], len(items), nil
		},
	}
	app := setupApp(makeDeps(t, nil, repo))

	req := httptest.NewRequest("GET", "/v1/predictions?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.PredictionOverview `json:"data"`
		Pagination handler.Pagination          `json:"pagination"`
	}
	json.Unmarshal(readBody(t, resp.Body), &result)
	if len(result.Data) != 3 || result.Pagination.Total != 10 {
		t.Errorf("expected 3 of 10, got %d of %d", len(result.Data), result.Pagination.Total)
	}

	link := resp.Header.Get("Link")
	for _, rel := range []string{`rel="first"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
}

func TestModelEndpoint(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("GET", "/v1/model", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var info domain.ModelInfo
	json.Unmarshal(readBody(t, resp.Body), &info)
	if info.Label() != "stub@test" || len(info.FeatureColumns) != len(domain.FeatureNames) {
		t.Errorf("unexpected model info %+v", info)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" || result["version"] != "test" {
		t.Errorf("unexpected health body %v", result)
	}
}

func TestReady_NothingConfigured(t *testing.T) {
	// Storage, cache and NATS are optional; only the model is required.
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["model"] != "stub@test" || result.Checks["storage"] != "not configured" {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

func TestReady_StorageDown(t *testing.T) {
	deps := makeDeps(t, nil, nil)
	deps.Storage = pingerFunc(func(context.Context) error { return errors.New("disk gone") })
	deps.Cache = pingerFunc(func(context.Context) error { return nil })
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Checks["cache"] != "ok" || !strings.HasPrefix(result.Checks["storage"], "error:") {
		t.Errorf("unexpected checks %v", result.Checks)
	}
}

// ---- Middleware ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/model", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag")
	}

	req := httptest.NewRequest("GET", "/v1/model", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocket_DisabledWithoutNATS(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 without NATS, got %d", resp.StatusCode)
	}
}

// TestAccessLogMiddleware verifies structured access logging passes responses through.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp.Body); !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", body)
	}
}

// ---- GraphQL ----

func graphql(t *testing.T, app *fiber.App, query string) map[string]interface{} {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGraphQL_PredictRoute(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	out := graphql(t, app, `mutation {
		predictRoute(name: "gql", points: [{lat: 0, lon: 0}, {lat: 0, lon: 0.001}, {lat: 0, lon: 0.002}]) {
			name point_count total_time_hours segments { predicted_speed_kmh }
		}
	}`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	pred := out["data"].(map[string]interface{})["predictRoute"].(map[string]interface{})
	if pred["name"] != "gql" || pred["point_count"] != float64(3) {
		t.Errorf("unexpected prediction %v", pred)
	}
	if segs := pred["segments"].([]interface{}); len(segs) != 2 {
		t.Errorf("expected 2 segments, got %d", len(segs))
	}
	if pred["total_time_hours"].(float64) <= 0 {
		t.Errorf("expected positive time, got %v", pred["total_time_hours"])
	}
}

func TestGraphQL_Model(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	out := graphql(t, app, `{ model { name version feature_columns } }`)
	model := out["data"].(map[string]interface{})["model"].(map[string]interface{})
	if model["name"] != "stub" || model["version"] != "test" {
		t.Errorf("unexpected model %v", model)
	}
}

func TestGraphQL_TooFewPoints(t *testing.T) {
	app := setupApp(makeDeps(t, nil, nil))

	out := graphql(t, app, `mutation { predictRoute(points: [{lat: 0, lon: 0}]) { id } }`)
	if out["errors"] == nil {
		t.Fatal("expected an error for a single point")
	}
}
