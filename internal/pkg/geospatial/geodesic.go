package geospatial

import "github.com/tidwall/geodesic"

// Distance returns the WGS 84 ellipsoidal distance in meters between two
// points. Elevation is ignored.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	var s12 float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &s12, nil, nil)
	return s12
}
