package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/leolan92/Parsing-house-price/config"
	"github.com/leolan92/Parsing-house-price/geocode"
	"github.com/leolan92/Parsing-house-price/models"
	"github.com/leolan92/Parsing-house-price/render"
	"github.com/leolan92/Parsing-house-price/scraper/yungching"
	"github.com/leolan92/Parsing-house-price/services"
	"github.com/leolan92/Parsing-house-price/storage"
	"github.com/leolan92/Parsing-house-price/utils"
)

const (
	phaseScrape = "scrape"
	phaseLoad   = "load"
	phaseEnrich = "enrich"
	phaseReport = "report"
	phaseRender = "render"
)

var allPhases = []string{phaseScrape, phaseLoad, phaseEnrich, phaseReport, phaseRender}

func main() {
	configFile := pflag.String("config", "", "path to a YAML config file (default: config/scraper.yaml when present)")
	phases := pflag.StringSlice("phases", allPhases, "comma-separated phases to run, in pipeline order")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		utils.NewLogger().Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	logger := utils.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat).With("run_id", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	logger.Info("=== House price pipeline starting ===")
	logger.Info("Config: source %s | %s %s %s | pages: %d | db: %s | phases: %v",
		cfg.SourceBaseURL, cfg.SearchCity, cfg.SearchDistrict, cfg.SearchKeyword,
		cfg.MaxPages, cfg.DBDriver, *phases)

	p := &pipeline{cfg: cfg, logger: logger}
	err = p.run(ctx, *phases)
	p.close()
	stop()

	if err != nil {
		logger.Error("Pipeline failed: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("=== Done ===")
	logger.Sync()
}

// pipeline runs the selected phases against one store connection.
type pipeline struct {
	cfg    *config.Config
	logger *utils.Logger
	store  *storage.SQLStore
}

func (p *pipeline) run(ctx context.Context, phases []string) error {
	selected := make(map[string]bool, len(phases))
	for _, name := range phases {
		if !isPhase(name) {
			return fmt.Errorf("unknown phase %q (valid: %v)", name, allPhases)
		}
		selected[name] = true
	}

	steps := map[string]func(context.Context) error{
		phaseScrape: p.scrape,
		phaseLoad:   p.load,
		phaseEnrich: p.enrich,
		phaseReport: p.report,
		phaseRender: p.render,
	}
	for _, name := range allPhases {
		if !selected[name] {
			continue
		}
		p.logger.Info("--- phase %s ---", name)
		if err := steps[name](ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func isPhase(name string) bool {
	for _, p := range allPhases {
		if p == name {
			return true
		}
	}
	return false
}

func (p *pipeline) openStore(ctx context.Context) (*storage.SQLStore, error) {
	if p.store != nil {
		return p.store, nil
	}
	store, err := storage.Open(ctx, p.cfg.DBDriver, p.cfg.DBDSN, p.logger)
	if err != nil {
		return nil, err
	}
	p.store = store
	return store, nil
}

func (p *pipeline) close() {
	if p.store == nil {
		return
	}
	if err := p.store.Close(); err != nil {
		p.logger.Warn("Closing store: %v", err)
	}
}

func (p *pipeline) scrape(ctx context.Context) error {
	var fetcher yungching.Fetcher
	if p.cfg.FetchMode == config.FetchModeBrowser {
		browser := yungching.NewBrowserFetcher(p.cfg.ChromeBin, p.cfg.UserAgent, p.logger)
		defer browser.Close()
		fetcher = browser
	} else {
		fetcher = yungching.NewHTTPFetcher(p.cfg.UserAgent)
	}

	listings, err := yungching.New(p.cfg, fetcher, p.logger).Scrape(ctx)
	if err != nil {
		return err
	}

	p.logger.Info("共%d項物件", len(listings))
	if len(listings) == 0 {
		p.logger.Warn("No listings were scraped; %s will only hold the header", p.cfg.CSVOutputPath)
	}

	if err := storage.ExportCSV(p.cfg.CSVOutputPath, listings); err != nil {
		return err
	}
	p.logger.Info("Listings saved to %s", p.cfg.CSVOutputPath)
	return nil
}

func (p *pipeline) load(ctx context.Context) error {
	listings, err := storage.ReadCSV(p.cfg.CSVOutputPath)
	if err != nil {
		return err
	}

	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	before, err := store.Count(ctx)
	if err != nil {
		return err
	}
	n, err := store.Load(ctx, listings)
	if err != nil {
		return err
	}
	after, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if after-before != len(listings) {
		return fmt.Errorf("loaded %d rows from %s but the table grew by %d", len(listings), p.cfg.CSVOutputPath, after-before)
	}

	p.logger.Info("Loaded %d rows into %s (%d total)", n, p.cfg.DBDriver, after)
	return nil
}

func (p *pipeline) enrich(ctx context.Context) error {
	if p.cfg.GoogleAPIKey == "" {
		return errors.New("GOOGLE_API_KEY is required")
	}

	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	var geocoder geocode.Geocoder = geocode.NewGoogleClient(p.cfg.GeocodeBaseURL, p.cfg.GoogleAPIKey)
	if p.cfg.GeocodeCache {
		geocoder = geocode.Memoize(geocoder)
	}

	_, err = services.NewEnricher(store, geocoder, p.logger).Enrich(ctx)
	return err
}

func (p *pipeline) report(ctx context.Context) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	aggregates, err := store.AverageUnitPrice(ctx, p.cfg.TargetType)
	if err != nil {
		return err
	}
	markers, err := store.Markers(ctx, p.cfg.TargetType)
	if err != nil {
		return err
	}

	insights := services.NewInsightService(p.logger)
	insights.Print(insights.Generate(total, p.cfg.TargetType, aggregates, markers))
	return nil
}

func (p *pipeline) render(ctx context.Context) error {
	store, err := p.openStore(ctx)
	if err != nil {
		return err
	}

	markers, err := store.Markers(ctx, p.cfg.TargetType)
	if err != nil {
		return err
	}

	points, snippets, unlocated, err := render.Layers(markers)
	if err != nil {
		return err
	}
	for _, m := range unlocated {
		p.logger.Warn("No coordinates for %q, leaving it off the map", m.Address)
	}

	var renderer render.Renderer = &render.HTMLMap{
		Path:   p.cfg.MapOutputPath,
		APIKey: p.cfg.GoogleAPIKey,
		Center: models.Point{Lat: p.cfg.SearchLat, Lng: p.cfg.SearchLng},
	}
	if err := renderer.Render(points, snippets); err != nil {
		return err
	}
	p.logger.Info("Map with %d communities written to %s", len(points), p.cfg.MapOutputPath)
	return nil
}
