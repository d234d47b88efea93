// Package render draws the community markers on a map page.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/leolan92/Parsing-house-price/models"
)

// ErrMisaligned is returned when points and info boxes differ in number.
var ErrMisaligned = errors.New("render: points and info boxes are not aligned")

var infoBoxTemplate = template.Must(template.New("infobox").Parse(`
<dl>
<dt>Name</dt><dd>{{.Address}}</dd>
<dt>Ave. unitprice</dt><dd>{{.AvgUnitPrice}}</dd>
</dl>
`))

// InfoBox renders the info window content of one community. A missing
// average is shown as N/A.
func InfoBox(address string, avg *float64) (string, error) {
	data := struct {
		Address      string
		AvgUnitPrice string
	}{
		Address:      address,
		AvgUnitPrice: models.NotAvailable,
	}
	if avg != nil {
		data.AvgUnitPrice = decimal.NewFromFloat(*avg).StringFixed(2)
	}

	var buf bytes.Buffer
	if err := infoBoxTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: info box: %w", err)
	}
	return buf.String(), nil
}

// Layers splits markers into the points and info boxes of the located ones,
// index-aligned, and returns the markers that have no coordinates.
func Layers(markers []models.MapMarker) ([]models.Point, []string, []models.MapMarker, error) {
	var (
		points    []models.Point
		snippets  []string
		unlocated []models.MapMarker
	)
	for _, m := range markers {
		if !m.Located() {
			unlocated = append(unlocated, m)
			continue
		}
		snippet, err := InfoBox(m.Address, m.AvgUnitPrice)
		if err != nil {
			return nil, nil, nil, err
		}
		points = append(points, models.Point{Lat: *m.Latitude, Lng: *m.Longitude})
		snippets = append(snippets, snippet)
	}
	return points, snippets, unlocated, nil
}
