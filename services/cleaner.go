package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/utils"
)

const (
	// layoutMarker precedes the floor plan inside the address cell.
	layoutMarker  = "格局"
	roomSeparator = "："
	tenThousand   = "萬"
	ping          = "坪"
	floorRange    = "~"
	floorTotal    = "/"
)

// Cleaner transforms RawListings into normalized Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Normalize applies the per-field extraction rules to one raw row. Empty
// fields become the "N/A" sentinel (text) or nil (numbers); text that cannot
// be interpreted at all is an error and the row should be dropped.
func (c *Cleaner) Normalize(raw *models.RawListing) (*models.Listing, error) {
	listing := &models.Listing{
		DealTime: strings.TrimSpace(raw.DealTime),
		Type:     strings.TrimSpace(raw.Type),
		Address:  normaliseAddress(raw.Add),
		Room:     parseRoom(raw.Add),
	}

	var err error
	if listing.DealPrice, err = parseAmount(raw.DealPrice, tenThousand); err != nil {
		return nil, fmt.Errorf("dealPrice: %w", err)
	}
	if listing.UnitPrice, err = parseAmount(raw.UnitPrice, tenThousand); err != nil {
		return nil, fmt.Errorf("unitPrice: %w", err)
	}
	if listing.FloorSpace, err = parseAmount(raw.FloorSpace, ping); err != nil {
		return nil, fmt.Errorf("floorSpace: %w", err)
	}
	if listing.Floor, listing.TotalFloor, err = parseFloor(raw.Floor); err != nil {
		return nil, fmt.Errorf("floor: %w", err)
	}

	c.logger.Debug("[cleaner] %s | %s | %s", listing.DealTime, listing.Type, listing.Address)
	return listing, nil
}

// normaliseAddress keeps the text before the layout marker. Addresses that
// wrap over blank lines on the page lose all their whitespace.
func normaliseAddress(cell string) string {
	addr, _, _ := strings.Cut(cell, layoutMarker)
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "\n\n") {
		addr = strings.Join(strings.Fields(strings.ReplaceAll(addr, "\n\n", "")), "")
	}
	if addr == "" {
		return models.NotAvailable
	}
	return addr
}

// parseRoom returns the text after the last full-width colon.
func parseRoom(cell string) string {
	idx := strings.LastIndex(cell, roomSeparator)
	if idx < 0 {
		return models.NotAvailable
	}
	room := strings.TrimSpace(cell[idx+len(roomSeparator):])
	if room == "" {
		return models.NotAvailable
	}
	return room
}

// parseAmount reads the number in front of unit, e.g. "1,580萬" -> 1580.
func parseAmount(cell, unit string) (*float64, error) {
	before, _, _ := strings.Cut(cell, unit)
	before = strings.TrimSpace(before)
	if before == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(before, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", before, err)
	}
	return &v, nil
}

// parseFloor splits "3~7/15" into floor "7" and total floor "15". Cells
// without a range, or with a blank floor or total, yield the sentinel floor
// and no total floor.
func parseFloor(cell string) (string, *string, error) {
	segments := strings.Split(cell, floorRange)
	if len(segments) < 2 {
		return models.NotAvailable, nil, nil
	}
	last := strings.TrimSpace(segments[len(segments)-1])
	if last == "" {
		return models.NotAvailable, nil, nil
	}

	floor, total, ok := strings.Cut(last, floorTotal)
	if !ok {
		return "", nil, fmt.Errorf("%q has no total floor", last)
	}
	floor = strings.TrimSpace(floor)
	total = strings.TrimSpace(total)
	if floor == "" || total == "" {
		return models.NotAvailable, nil, nil
	}
	return floor, &total, nil
}
