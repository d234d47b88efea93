package yungching

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/services"
	"github.com/leolan92/Parsing-house-price/utils"
)

func newTestParser() *Parser {
	logger := utils.NewNopLogger()
	return NewParser(services.NewCleaner(logger), logger)
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParsePageGolden(t *testing.T) {
	got, err := newTestParser().ParsePage(readFixture(t, "deal_page.html"), nil)
	require.NoError(t, err)

	want := []*models.Listing{
		{
			DealTime: "112/08", Type: "電梯大樓", Address: "富宇東方明珠 東區慈雲路61~90號", Room: "3房2廳2衛",
			DealPrice: models.Float64(1580), UnitPrice: models.Float64(32.5), FloorSpace: models.Float64(48.6),
			Floor: "7", TotalFloor: models.String("15"),
		},
		{
			DealTime: "112/07", Type: "電梯大樓", Address: "興達SOGO東區慈雲路118號", Room: "2房1廳1衛",
			DealPrice: models.Float64(1020), UnitPrice: models.Float64(28.1), FloorSpace: models.Float64(36.3),
			Floor: "11", TotalFloor: models.String("14"),
		},
		{
			DealTime: "112/06", Type: "透天厝", Address: "東區慈雲路200號", Room: models.NotAvailable,
			FloorSpace: models.Float64(30.2), Floor: models.NotAvailable,
		},
		{
			DealTime: "112/04", Type: "華廈", Address: models.NotAvailable, Room: "4房2廳",
			Floor: models.NotAvailable,
		},
	}
	assert.Equal(t, want, got)
}

func TestParsePageAppendsToTotal(t *testing.T) {
	p := newTestParser()
	html := readFixture(t, "deal_page.html")

	total, err := p.ParsePage(html, nil)
	require.NoError(t, err)
	total, err = p.ParsePage(html, total)
	require.NoError(t, err)

	assert.Len(t, total, 8)
	assert.Equal(t, "112/08", total[4].DealTime)
}

func TestParsePageReadsFirstTableBodyOnly(t *testing.T) {
	html := `<html><body><table class="dealTable">
<tbody>
<tr><td><span>112/08</span></td><td class="type">電梯大樓</td><td class="add">東區慈雲路61號格局：3房</td>
<td class="dealPrice">1,580萬</td><td class="unitPrice">32.5萬/坪</td><td class="floorSpace">48.6坪</td><td class="floor">7~7/15</td></tr>
</tbody>
<tbody class="summary">
<tr><td><span>小計</span></td><td class="type">電梯大樓</td><td class="add">平均</td>
<td class="dealPrice">1,580萬</td><td class="unitPrice">32.5萬/坪</td><td class="floorSpace">48.6坪</td><td class="floor">7~7/15</td></tr>
</tbody>
</table></body></html>`

	got, err := newTestParser().ParsePage(html, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "東區慈雲路61號", got[0].Address)
}

func TestParsePageWithoutRows(t *testing.T) {
	existing := []*models.Listing{{DealTime: "111/01"}}

	tests := []struct {
		name string
		html string
	}{
		{"empty table", readFixture(t, "empty_page.html")},
		{"no table", "<html><body><p>維護中</p></body></html>"},
		{"blank document", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestParser().ParsePage(tt.html, existing)
			require.NoError(t, err)
			assert.Equal(t, existing, got)
		})
	}
}
