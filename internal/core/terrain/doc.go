// Package terrain turns an ordered route into the per-point terrain signals
// the speed model consumes: cumulative distance, smoothed elevation and
// windowed slope. Everything here is pure and allocation-bounded by the
// route length.
package terrain
