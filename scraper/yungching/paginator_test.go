package yungching

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leolan92/Parsing-house-price/config"
	"github.com/leolan92/Parsing-house-price/utils"
)

// fakeFetcher serves pages by number; pages without an entry are empty.
type fakeFetcher struct {
	params SearchParams
	pages  map[int]string
	fail   map[int]bool
	urls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	for n := 1; n <= 100; n++ {
		if f.params.PageURL(n) != url {
			continue
		}
		if f.fail[n] {
			return "", errors.New("connection reset by peer")
		}
		if html, ok := f.pages[n]; ok {
			return html, nil
		}
		return "<html><body></body></html>", nil
	}
	return "", errors.New("unknown url")
}

func testConfig(stopOnEmpty bool) *config.Config {
	return &config.Config{
		SourceBaseURL:   "https://evertrust.yungching.com.tw",
		SearchCity:      "新竹市",
		SearchDistrict:  "東區",
		SearchKeyword:   "慈雲路",
		SearchDealType:  "2",
		SearchPeriod:    "12",
		SearchLat:       24.7915659664812,
		SearchLng:       121.012094991928,
		MaxPages:        26,
		StopOnEmptyPage: stopOnEmpty,
	}
}

func newTestScraper(t *testing.T, stopOnEmpty bool, pages map[int]string, fail map[int]bool) (*Scraper, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{pages: pages, fail: fail}
	s := New(testConfig(stopOnEmpty), fetcher, utils.NewNopLogger())
	fetcher.params = s.params
	return s, fetcher
}

func TestPageURL(t *testing.T) {
	s, _ := newTestScraper(t, true, nil, nil)

	const query = "?kw=%E6%85%88%E9%9B%B2%E8%B7%AF&dt=2&d=12&t=&a=&c=&x=24.7915659664812&y=121.012094991928"
	assert.Equal(t,
		"https://evertrust.yungching.com.tw/region/%E6%96%B0%E7%AB%B9%E5%B8%82/%E6%9D%B1%E5%8D%80"+query,
		s.params.PageURL(1))
	assert.Equal(t,
		"https://evertrust.yungching.com.tw/region/%E6%96%B0%E7%AB%B9%E5%B8%82/%E6%9D%B1%E5%8D%80/2"+query,
		s.params.PageURL(2))
	assert.Equal(t,
		"https://evertrust.yungching.com.tw/region/%E6%96%B0%E7%AB%B9%E5%B8%82/%E6%9D%B1%E5%8D%80/26"+query,
		s.params.PageURL(26))
}

func TestScrapeFetchesEveryPageWhenStopDisabled(t *testing.T) {
	s, fetcher := newTestScraper(t, false, map[int]string{1: readFixture(t, "deal_page.html")}, nil)

	got, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Len(t, fetcher.urls, 26)
	assert.Equal(t, s.params.PageURL(1), fetcher.urls[0])
	assert.Equal(t, s.params.PageURL(26), fetcher.urls[25])
	assert.Len(t, got, 4)
}

func TestScrapeStopsAtFirstEmptyPage(t *testing.T) {
	page := readFixture(t, "deal_page.html")
	s, fetcher := newTestScraper(t, true, map[int]string{1: page, 2: page, 4: page}, nil)

	got, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Len(t, fetcher.urls, 3)
	assert.Len(t, got, 8)
}

func TestScrapeContinuesPastFetchFailures(t *testing.T) {
	page := readFixture(t, "deal_page.html")
	s, fetcher := newTestScraper(t, true,
		map[int]string{1: page, 3: page},
		map[int]bool{2: true},
	)

	got, err := s.Scrape(context.Background())
	require.NoError(t, err)

	assert.Len(t, fetcher.urls, 4)
	assert.Len(t, got, 8)
}

func TestScrapeHonoursCancellation(t *testing.T) {
	s, fetcher := newTestScraper(t, false, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := s.Scrape(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
	assert.Empty(t, fetcher.urls)
}

func TestHTTPFetcherSendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "house-price-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "慈雲路", r.URL.Query().Get("kw"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher("house-price-test/1.0").Fetch(context.Background(), srv.URL+"/region?kw=%E6%85%88%E9%9B%B2%E8%B7%AF")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", body)
}

func TestHTTPFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher("house-price-test/1.0").Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "503")
	assert.Empty(t, body)
}
