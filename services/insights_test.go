package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leolan92/Parsing-house-price/models"
)

func sampleAggregates() []models.CommunityAggregate {
	return []models.CommunityAggregate{
		{Address: "富宇東方明珠東區慈雲路61~90號", AvgUnitPrice: models.Float64(32.456)},
		{Address: "興達SOGO東區慈雲路118號", AvgUnitPrice: models.Float64(28.1)},
		{Address: models.NotAvailable},
		{Address: "遠見東區慈雲路200號", AvgUnitPrice: models.Float64(40)},
	}
}

func sampleMarkers() []models.MapMarker {
	return []models.MapMarker{
		{Address: "富宇東方明珠東區慈雲路61~90號", Latitude: models.Float64(24.79), Longitude: models.Float64(121.01)},
		{Address: "興達SOGO東區慈雲路118號"},
		{Address: "遠見東區慈雲路200號", Latitude: models.Float64(24.78), Longitude: models.Float64(121.02)},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(12, "電梯大樓", sampleAggregates(), sampleMarkers())

	assert.Equal(t, 12, r.TotalListings)
	assert.Equal(t, "電梯大樓", r.TargetType)
	assert.Len(t, r.Communities, 4)
	assert.Equal(t, 2, r.LocatedCommunities)
}

func TestInsightPrices(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(12, "電梯大樓", sampleAggregates(), sampleMarkers())

	assert.Equal(t, 33.52, r.AveragePrice)
	assert.Equal(t, 28.1, r.MinPrice)
	assert.Equal(t, 40.0, r.MaxPrice)

	require.NotNil(t, r.MostExpensive)
	assert.Equal(t, "遠見東區慈雲路200號", r.MostExpensive.Address)
	require.NotNil(t, r.Cheapest)
	assert.Equal(t, "興達SOGO東區慈雲路118號", r.Cheapest.Address)
}

func TestInsightOrdersCommunitiesByPrice(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	input := sampleAggregates()
	r := svc.Generate(12, "電梯大樓", input, nil)

	var order []string
	for _, c := range r.Communities {
		order = append(order, c.Address)
	}
	assert.Equal(t, []string{
		"遠見東區慈雲路200號",
		"富宇東方明珠東區慈雲路61~90號",
		"興達SOGO東區慈雲路118號",
		models.NotAvailable,
	}, order)
	assert.Equal(t, "富宇東方明珠東區慈雲路61~90號", input[0].Address, "input must not be reordered")
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(0, "電梯大樓", nil, nil)

	assert.Zero(t, r.TotalListings)
	assert.Empty(t, r.Communities)
	assert.Nil(t, r.MostExpensive)
	assert.Nil(t, r.Cheapest)
	assert.Zero(t, r.AveragePrice)
}

func TestInsightFprint(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(12, "電梯大樓", sampleAggregates(), sampleMarkers())

	var buf bytes.Buffer
	svc.Fprint(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "共12項物件")
	assert.Contains(t, out, "32.46")
	assert.Contains(t, out, "33.52")
	assert.Contains(t, out, "遠見東區慈雲路200號")
	assert.Contains(t, out, models.NotAvailable)
}

func TestInsightFprintWithoutData(t *testing.T) {
	svc := NewInsightService(newTestLogger())

	var buf bytes.Buffer
	svc.Fprint(&buf, svc.Generate(0, "電梯大樓", nil, nil))

	assert.Contains(t, buf.String(), "No price data available")
	assert.Contains(t, buf.String(), "No communities of type 電梯大樓")
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "富宇...", truncate("富宇東方明珠", 5))
	assert.Equal(t, "富宇東方明珠", truncate("富宇東方明珠", 6))
}
