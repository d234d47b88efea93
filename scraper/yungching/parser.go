package yungching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/services"
	"github.com/leolan92/Parsing-house-price/utils"
)

const dealTableSelector = "table.dealTable"

// Parser extracts transaction rows from a deal-history page.
type Parser struct {
	cleaner *services.Cleaner
	logger  *utils.Logger
}

func NewParser(cleaner *services.Cleaner, logger *utils.Logger) *Parser {
	return &Parser{cleaner: cleaner, logger: logger}
}

// ParsePage appends every well-formed row in the first body of the page's
// first deal table to total and returns the extended slice. Rows with a
// missing cell or a value that cannot be normalized are logged and skipped.
// A page without a deal table contributes nothing.
func (p *Parser) ParsePage(html string, total []*models.Listing) ([]*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return total, fmt.Errorf("parse page: %w", err)
	}

	table := doc.Find(dealTableSelector).First()
	if table.Length() == 0 {
		p.logger.Warn("[parser] No %s found on page", dealTableSelector)
		return total, nil
	}

	table.ChildrenFiltered("tbody").First().ChildrenFiltered("tr").Each(func(i int, row *goquery.Selection) {
		raw, err := extractRow(row)
		if err != nil {
			p.logger.Warn("[parser] Row %d skipped: %v", i+1, err)
			return
		}

		listing, err := p.cleaner.Normalize(raw)
		if err != nil {
			p.logger.Warn("[parser] Row %d skipped: %v (raw: %+v)", i+1, err, *raw)
			return
		}
		total = append(total, listing)
	})

	return total, nil
}

// extractRow reads the raw cell texts of one table row.
func extractRow(row *goquery.Selection) (*models.RawListing, error) {
	dealTime := row.Find("td").First().Find("span").First()
	if dealTime.Length() == 0 {
		return nil, errors.New("missing deal time")
	}

	raw := &models.RawListing{DealTime: dealTime.Text()}
	cells := []struct {
		class string
		dst   *string
	}{
		{"type", &raw.Type},
		{"add", &raw.Add},
		{"dealPrice", &raw.DealPrice},
		{"unitPrice", &raw.UnitPrice},
		{"floorSpace", &raw.FloorSpace},
		{"floor", &raw.Floor},
	}
	for _, c := range cells {
		cell := row.Find("td." + c.class).First()
		if cell.Length() == 0 {
			return nil, fmt.Errorf("missing td.%s", c.class)
		}
		*c.dst = cell.Text()
	}
	return raw, nil
}
