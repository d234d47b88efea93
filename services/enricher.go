package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/leolan92/Parsing-house-price/geocode"
	"github.com/leolan92/Parsing-house-price/storage"
	"github.com/leolan92/Parsing-house-price/utils"
)

// EnrichStats summarizes one geocoding pass.
type EnrichStats struct {
	Rows        int
	Geocoded    int
	Failed      int
	RowsUpdated int64
}

// Enricher attaches coordinates to stored listings.
type Enricher struct {
	store    storage.CoordinateStore
	geocoder geocode.Geocoder
	logger   *utils.Logger
}

func NewEnricher(store storage.CoordinateStore, geocoder geocode.Geocoder, logger *utils.Logger) *Enricher {
	return &Enricher{store: store, geocoder: geocoder, logger: logger}
}

// Enrich geocodes the address of every stored row, in id order, and writes
// the first candidate's coordinates to all rows sharing that address. Lookup
// failures are logged and leave the row untouched; store failures abort.
func (e *Enricher) Enrich(ctx context.Context) (EnrichStats, error) {
	var stats EnrichStats

	rows, err := e.store.FetchAll(ctx)
	if err != nil {
		return stats, fmt.Errorf("enrich: %w", err)
	}
	stats.Rows = len(rows)
	e.logger.Info("[enrich] Geocoding %d stored rows", stats.Rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		loc, err := e.geocoder.Geocode(ctx, row.Address)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			if errors.Is(err, geocode.ErrNoResults) {
				e.logger.Warn("[enrich] No coordinates for row %d %q", row.ID, row.Address)
			} else {
				e.logger.Error("[enrich] Geocoding row %d %q failed: %v", row.ID, row.Address, err)
			}
			continue
		}
		stats.Geocoded++

		n, err := e.store.UpdateCoordinates(ctx, row.Address, loc.Lat, loc.Lng)
		if err != nil {
			return stats, fmt.Errorf("enrich: row %d: %w", row.ID, err)
		}
		stats.RowsUpdated += n
		e.logger.Debug("[enrich] %q -> (%f, %f), %d rows", row.Address, loc.Lat, loc.Lng, n)
	}

	e.logger.Info("[enrich] Done: %d geocoded, %d failed, %d row updates",
		stats.Geocoded, stats.Failed, stats.RowsUpdated)
	return stats, nil
}
