package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// predictionToMap flattens the embedded summary, which the default resolver
// cannot see through.
func predictionToMap(p *domain.Prediction) map[string]interface{} {
	return map[string]interface{}{
		"id":                p.ID,
		"name":              p.Name,
		"model":             p.Model,
		"point_count":       p.PointCount,
		"bounds":            p.Bounds,
		"total_distance_km": p.TotalDistanceKm,
		"total_time_hours":  p.TotalTimeHours,
		"formatted_time":    domain.FormatDuration(p.TotalTimeHours),
		"elevation_gain_m":  p.ElevationGainM,
		"elevation_loss_m":  p.ElevationLossM,
		"average_speed_kmh": p.AverageSpeedKmh,
		"segments":          p.Segments,
		"created_at":        p.CreatedAt.Format(time.RFC3339),
	}
}

func overviewToMap(o domain.PredictionOverview) map[string]interface{} {
	return map[string]interface{}{
		"id":                o.ID,
		"name":              o.Name,
		"model":             o.Model,
		"point_count":       o.PointCount,
		"total_distance_km": o.TotalDistanceKm,
		"total_time_hours":  o.TotalTimeHours,
		"formatted_time":    domain.FormatDuration(o.TotalTimeHours),
		"elevation_gain_m":  o.ElevationGainM,
		"elevation_loss_m":  o.ElevationLossM,
		"average_speed_kmh": o.AverageSpeedKmh,
		"created_at":        o.CreatedAt.Format(time.RFC3339),
	}
}

// pointsFromArg converts the [PointInput] argument into route points.
func pointsFromArg(v interface{}) ([]domain.RoutePoint, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("points must be a list")
	}
	points := make([]domain.RoutePoint, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("point %d is not an object", i)
		}
		lat, _ := m["lat"].(float64)
		lon, _ := m["lon"].(float64)
		ele, _ := m["ele"].(float64)
		points = append(points, domain.RoutePoint{Lat: lat, Lon: lon, Elevation: ele})
	}
	return points, nil
}

// buildSchema creates the GraphQL schema wired to the prediction service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Segment",
		Fields: graphql.Fields{
			"distance_km":            &graphql.Field{Type: graphql.Float},
			"elevation_m":            &graphql.Field{Type: graphql.Float},
			"slope_percent":          &graphql.Field{Type: graphql.Float},
			"predicted_speed_kmh":    &graphql.Field{Type: graphql.Float},
			"start_time_hours":       &graphql.Field{Type: graphql.Float},
			"cumulative_time_hours":  &graphql.Field{Type: graphql.Float},
			"cumulative_distance_km": &graphql.Field{Type: graphql.Float},
			"segment_distance_m":     &graphql.Field{Type: graphql.Float},
			"segment_time_hours":     &graphql.Field{Type: graphql.Float},
		},
	})

	summaryFields := func() graphql.Fields {
		return graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"name":              &graphql.Field{Type: graphql.String},
			"model":             &graphql.Field{Type: graphql.String},
			"point_count":       &graphql.Field{Type: graphql.Int},
			"total_distance_km": &graphql.Field{Type: graphql.Float},
			"total_time_hours":  &graphql.Field{Type: graphql.Float},
			"formatted_time":    &graphql.Field{Type: graphql.String},
			"elevation_gain_m":  &graphql.Field{Type: graphql.Float},
			"elevation_loss_m":  &graphql.Field{Type: graphql.Float},
			"average_speed_kmh": &graphql.Field{Type: graphql.Float},
			"created_at":        &graphql.Field{Type: graphql.String},
		}
	}

	overviewType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "PredictionOverview",
		Fields: summaryFields(),
	})

	predictionFields := summaryFields()
	predictionFields["bounds"] = &graphql.Field{Type: boundsType}
	predictionFields["segments"] = &graphql.Field{Type: graphql.NewList(segmentType)}
	predictionType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Prediction",
		Fields: predictionFields,
	})

	modelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Model",
		Fields: graphql.Fields{
			"name":            &graphql.Field{Type: graphql.String},
			"version":         &graphql.Field{Type: graphql.String},
			"kind":            &graphql.Field{Type: graphql.String},
			"feature_columns": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"ele": &graphql.InputObjectFieldConfig{Type: graphql.Float, DefaultValue: 0.0},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"model": &graphql.Field{
				Type:        modelType,
				Description: "The loaded speed model",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Predictions.ModelInfo(), nil
				},
			},
			"prediction": &graphql.Field{
				Type:        predictionType,
				Description: "Get a stored prediction by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pred, err := deps.Predictions.Get(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return predictionToMap(pred), nil
				},
			},
			"predictions": &graphql.Field{
				Type:        graphql.NewList(overviewType),
				Description: "Most recent predictions",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					items, _, err := deps.Predictions.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(items))
					for _, o := range items {
						result = append(result, overviewToMap(o))
					}
					return result, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"predictRoute": &graphql.Field{
				Type:        predictionType,
				Description: "Predict the hiking time of a point list",
				Args: graphql.FieldConfigArgument{
					"name":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"points": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(pointInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points, err := pointsFromArg(p.Args["points"])
					if err != nil {
						return nil, err
					}
					name, _ := p.Args["name"].(string)
					pred, err := deps.Predictions.Predict(p.Context, name, points)
					if err != nil {
						return nil, err
					}
					return predictionToMap(pred), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
