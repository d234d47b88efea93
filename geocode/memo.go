package geocode

import "context"

type memo struct {
	next  Geocoder
	cache map[string]Location
}

// Memoize wraps next so that each distinct address is looked up once per
// process. Failed lookups are not cached.
func Memoize(next Geocoder) Geocoder {
	return &memo{next: next, cache: make(map[string]Location)}
}

func (m *memo) Geocode(ctx context.Context, address string) (Location, error) {
	if loc, ok := m.cache[address]; ok {
		return loc, nil
	}
	loc, err := m.next.Geocode(ctx, address)
	if err != nil {
		return Location{}, err
	}
	m.cache[address] = loc
	return loc, nil
}
