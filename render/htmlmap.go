package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/leolan92/Parsing-house-price/models"
)

const (
	markerColor = "green"
	markerScale = 3
	defaultZoom = 16
)

// Renderer draws one marker per point, with snippets[i] shown for points[i].
type Renderer interface {
	Render(points []models.Point, snippets []string) error
}

// HTMLMap writes a standalone page backed by the Google Maps JavaScript API.
type HTMLMap struct {
	Path   string
	APIKey string
	Center models.Point
	Zoom   int
}

type mapMarker struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Info string  `json:"info"`
}

var mapPage = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Ave. unitprice by community</title>
<style>html, body, #map { height: 100%; margin: 0; padding: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
const markers = {{.Markers}};
function initMap() {
  const map = new google.maps.Map(document.getElementById("map"), {
    center: {lat: {{.Center.Lat}}, lng: {{.Center.Lng}}},
    zoom: {{.Zoom}},
  });
  const info = new google.maps.InfoWindow();
  for (const m of markers) {
    const marker = new google.maps.Marker({
      position: {lat: m.lat, lng: m.lng},
      map: map,
      icon: {
        path: google.maps.SymbolPath.CIRCLE,
        fillColor: {{.Color}},
        fillOpacity: 1,
        strokeColor: {{.Color}},
        scale: {{.Scale}},
      },
    });
    marker.addListener("click", () => {
      info.setContent(m.info);
      info.open(map, marker);
    });
  }
}
</script>
<script async defer src="https://maps.googleapis.com/maps/api/js?key={{.APIKey}}&callback=initMap"></script>
</body>
</html>
`))

// Render overwrites h.Path with the map page.
func (h *HTMLMap) Render(points []models.Point, snippets []string) error {
	if len(points) != len(snippets) {
		return fmt.Errorf("%w: %d points, %d info boxes", ErrMisaligned, len(points), len(snippets))
	}

	markers := make([]mapMarker, len(points))
	for i, p := range points {
		markers[i] = mapMarker{Lat: p.Lat, Lng: p.Lng, Info: snippets[i]}
	}

	center := h.Center
	if center == (models.Point{}) && len(points) > 0 {
		center = points[0]
	}
	zoom := h.Zoom
	if zoom == 0 {
		zoom = defaultZoom
	}

	var buf bytes.Buffer
	err := mapPage.Execute(&buf, struct {
		Markers []mapMarker
		Center  models.Point
		Zoom    int
		Color   string
		Scale   int
		APIKey  string
	}{markers, center, zoom, markerColor, markerScale, h.APIKey})
	if err != nil {
		return fmt.Errorf("render: map page: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.Path), 0755); err != nil {
		return fmt.Errorf("render: create output dir: %w", err)
	}
	if err := os.WriteFile(h.Path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("render: write %q: %w", h.Path, err)
	}
	return nil
}
