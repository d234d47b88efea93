package storage

import (
	"context"

	"github.com/leolan92/Parsing-house-price/models"
)

// ListingWriter is the interface any export backend must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// ListingLoader loads exported listings into the relational store.
type ListingLoader interface {
	Load(ctx context.Context, listings []*models.Listing) (int, error)
	Count(ctx context.Context) (int, error)
}

// CoordinateStore is what the geocoding phase needs from the store.
type CoordinateStore interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
	UpdateCoordinates(ctx context.Context, address string, lat, lng float64) (int64, error)
}

// CommunityReader serves the aggregate and map queries.
type CommunityReader interface {
	AverageUnitPrice(ctx context.Context, listingType string) ([]models.CommunityAggregate, error)
	Markers(ctx context.Context, listingType string) ([]models.MapMarker, error)
	Count(ctx context.Context) (int, error)
}
