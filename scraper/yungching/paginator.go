package yungching

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/leolan92/Parsing-house-price/config"
	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/services"
	"github.com/leolan92/Parsing-house-price/utils"
)

const platform = "yungching"

// SearchParams identifies the neighborhood deal-history query.
type SearchParams struct {
	BaseURL  string
	City     string
	District string
	Keyword  string
	DealType string
	Period   string
	Lat      float64
	Lng      float64
}

// PageURL builds the URL of page n. Page 1 has no page segment.
func (p SearchParams) PageURL(n int) string {
	path := "/region/" + url.PathEscape(p.City) + "/" + url.PathEscape(p.District)
	if n > 1 {
		path += "/" + strconv.Itoa(n)
	}
	return p.BaseURL + path + "?" + p.query()
}

// query keeps the parameter order the site itself uses.
func (p SearchParams) query() string {
	pairs := [][2]string{
		{"kw", p.Keyword},
		{"dt", p.DealType},
		{"d", p.Period},
		{"t", ""},
		{"a", ""},
		{"c", ""},
		{"x", strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		{"y", strconv.FormatFloat(p.Lng, 'f', -1, 64)},
	}
	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+url.QueryEscape(kv[1]))
	}
	return strings.Join(parts, "&")
}

// Scraper walks the result pages of one search sequentially.
type Scraper struct {
	params      SearchParams
	maxPages    int
	stopOnEmpty bool

	fetcher Fetcher
	parser  *Parser
	logger  *utils.Logger
}

// New creates a ready-to-use Scraper for the search described by cfg.
func New(cfg *config.Config, fetcher Fetcher, logger *utils.Logger) *Scraper {
	return &Scraper{
		params: SearchParams{
			BaseURL:  cfg.SourceBaseURL,
			City:     cfg.SearchCity,
			District: cfg.SearchDistrict,
			Keyword:  cfg.SearchKeyword,
			DealType: cfg.SearchDealType,
			Period:   cfg.SearchPeriod,
			Lat:      cfg.SearchLat,
			Lng:      cfg.SearchLng,
		},
		maxPages:    cfg.MaxPages,
		stopOnEmpty: cfg.StopOnEmptyPage,
		fetcher:     fetcher,
		parser:      NewParser(services.NewCleaner(logger), logger),
		logger:      logger,
	}
}

// Scrape fetches pages 1..maxPages and accumulates their rows. A page that
// cannot be fetched is logged and skipped. When stopOnEmpty is set, the
// first page that is fetched but yields no rows ends the walk.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.Listing, error) {
	s.logger.Info("[%s] Starting scrape of up to %d pages", platform, s.maxPages)

	var total []*models.Listing
	for page := 1; page <= s.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		pageURL := s.params.PageURL(page)
		s.logger.Debug("[%s] Fetching page %d: %s", platform, page, pageURL)

		html, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			s.logger.Error("[%s] Page %d failed: %v", platform, page, err)
			continue
		}

		before := len(total)
		total, err = s.parser.ParsePage(html, total)
		if err != nil {
			s.logger.Error("[%s] Page %d could not be parsed: %v", platform, page, err)
			continue
		}

		added := len(total) - before
		s.logger.Info("[%s] Page %d done: %d rows, %d so far", platform, page, added, len(total))

		if added == 0 && s.stopOnEmpty {
			s.logger.Warn("[%s] Page %d returned 0 rows, stopping", platform, page)
			break
		}
	}

	s.logger.Info("[%s] Scrape complete, total rows: %d", platform, len(total))
	return total, nil
}
