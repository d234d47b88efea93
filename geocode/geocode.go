// Package geocode resolves free-form addresses to coordinates.
package geocode

import (
	"context"
	"errors"
)

// ErrNoResults is returned when the service has no candidate for an address.
var ErrNoResults = errors.New("geocode: no results")

// Location is the latitude/longitude of the best candidate.
type Location struct {
	Lat float64
	Lng float64
}

// Geocoder looks up the coordinates of an address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}
