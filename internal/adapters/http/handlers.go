package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/trailpace/internal/adapters/gpx"
	"github.com/samirrijal/trailpace/internal/core/domain"
)

// predictionRequest is the JSON body of POST /v1/predictions.
type predictionRequest struct {
	Name   string              `json:"name"`
	Points []domain.RoutePoint `json:"points"`
}

// readRoute extracts the route from a multipart GPX upload, a JSON point
// list or a raw GPX body, in that order.
func readRoute(c *fiber.Ctx) (string, []domain.RoutePoint, error) {
	contentType := strings.ToLower(string(c.Request().Header.ContentType()))

	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		fh, err := c.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("multipart upload needs a file field: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("open upload: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("read upload: %w", err)
		}
		r, err := gpx.Parse(data)
		if err != nil {
			return "", nil, err
		}
		name := r.Name
		if name == "" {
			name = strings.TrimSuffix(fh.Filename, ".gpx")
		}
		return name, r.Points, nil

	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		var req predictionRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return "", nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req.Name, req.Points, nil

	default:
		if len(c.Body()) == 0 {
			return "", nil, errors.New("request body is empty")
		}
		r, err := gpx.Parse(c.Body())
		if err != nil {
			return "", nil, err
		}
		return r.Name, r.Points, nil
	}
}

// CreatePredictionHandler predicts the hiking time of an uploaded route.
func CreatePredictionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, points, err := readRoute(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if q := c.Query("name"); q != "" {
			name = q
		}
		if len(name) > 200 {
			return errBadRequest(c, "name too long (max 200 characters)")
		}

		ctx := c.UserContext()
		p, err := deps.Predictions.Predict(ctx, name, points)
		if err != nil {
			LoggerFromCtx(ctx).Warn("prediction failed", "points", len(points), "error", err)
			return errPrediction(c, err)
		}

		c.Set(fiber.HeaderLocation, "/v1/predictions/"+p.ID)
		return c.Status(fiber.StatusCreated).JSON(domain.NewOutcome(p, nil))
	}
}

// ListPredictionsHandler returns recent prediction overviews.
func ListPredictionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := parsePagination(c)

		items, total, err := deps.Predictions.List(c.UserContext(), pg.Offset, pg.Limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg.Total = total
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// GetPredictionHandler returns a stored prediction by ID.
func GetPredictionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Predictions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "prediction not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(domain.NewOutcome(p, nil))
	}
}

// PredictionChartsHandler returns the chart series of a stored prediction.
func PredictionChartsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Predictions.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errNotFound(c, "prediction not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(p.Charts())
	}
}

// ModelHandler describes the loaded speed model.
func ModelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Predictions.ModelInfo())
	}
}
