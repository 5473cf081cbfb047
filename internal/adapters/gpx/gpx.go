// Package gpx extracts ordered route points from GPX documents.
package gpx

import (
	"errors"
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/trailpace/internal/core/domain"
)

// ErrInvalidGPX is returned when a document cannot be parsed as GPX.
var ErrInvalidGPX = errors.New("invalid GPX document")

// Route is the point sequence of one GPX document.
type Route struct {
	Name   string
	Points []domain.RoutePoint
}

// Parse decodes a GPX document.
func Parse(data []byte) (*Route, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGPX, err)
	}
	return FromGPX(g), nil
}

// ParseFile reads and decodes the GPX file at path.
func ParseFile(path string) (*Route, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGPX, path, err)
	}
	return FromGPX(g), nil
}

// FromGPX flattens every track segment in document order. Route points are
// only used when the document has no track points. Missing elevation is 0.
func FromGPX(g *gpx.GPX) *Route {
	r := &Route{Name: routeName(g)}
	for _, track := range g.Tracks {
		for _, seg := range track.Segments {
			for i := range seg.Points {
				r.Points = append(r.Points, toRoutePoint(&seg.Points[i]))
			}
		}
	}
	if len(r.Points) == 0 {
		for _, rte := range g.Routes {
			for i := range rte.Points {
				r.Points = append(r.Points, toRoutePoint(&rte.Points[i]))
			}
		}
	}
	return r
}

func toRoutePoint(p *gpx.GPXPoint) domain.RoutePoint {
	rp := domain.RoutePoint{Lat: p.Latitude, Lon: p.Longitude}
	if p.Elevation.NotNull() {
		rp.Elevation = p.Elevation.Value()
	}
	return rp
}

func routeName(g *gpx.GPX) string {
	if g.Name != "" {
		return g.Name
	}
	for _, t := range g.Tracks {
		if t.Name != "" {
			return t.Name
		}
	}
	for _, r := range g.Routes {
		if r.Name != "" {
			return r.Name
		}
	}
	return ""
}
