package models

// NotAvailable marks a text field that exists in the schema but could not be
// parsed from the source page. Numeric fields use a nil pointer instead.
const NotAvailable = "N/A"

// RawListing holds the unprocessed cell texts of one row of the deal table.
type RawListing struct {
	DealTime   string
	Type       string
	Add        string
	DealPrice  string
	UnitPrice  string
	FloorSpace string
	Floor      string
}

// Listing is one normalized real-estate transaction.
//
// TotalFloor is set if and only if Floor is not NotAvailable. A row whose
// floor column holds no range leaves TotalFloor nil; callers must handle
// that asymmetry.
type Listing struct {
	ID         int64
	DealTime   string
	Type       string
	Address    string
	Room       string
	DealPrice  *float64 // in units of 10,000
	UnitPrice  *float64 // per ping, in units of 10,000
	FloorSpace *float64 // in ping
	Floor      string
	TotalFloor *string

	Latitude  *float64
	Longitude *float64
}

// CommunityAggregate is the mean unit price of all listings sharing an address.
type CommunityAggregate struct {
	Address      string
	AvgUnitPrice *float64
}

// MapMarker is one community placed on the map, using the coordinates of the
// last stored listing of the group.
type MapMarker struct {
	Address      string
	AvgUnitPrice *float64
	Latitude     *float64
	Longitude    *float64
}

// Located reports whether the marker has both coordinates.
func (m MapMarker) Located() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64
	Lng float64
}

// InsightReport holds the computed analytics over the stored dataset.
type InsightReport struct {
	TotalListings      int
	TargetType         string
	Communities        []CommunityAggregate
	LocatedCommunities int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      *CommunityAggregate
	Cheapest           *CommunityAggregate
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
