package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds all application configuration.
type Config struct {
	UserAgent    string
	GoogleAPIKey string

	DBDriver string
	DBDSN    string

	CSVOutputPath string
	MapOutputPath string

	// Search describes the neighborhood listing query on the source site.
	SourceBaseURL  string
	SearchCity     string
	SearchDistrict string
	SearchKeyword  string
	SearchDealType string
	SearchPeriod   string
	SearchLat      float64
	SearchLng      float64

	MaxPages        int
	StopOnEmptyPage bool
	FetchMode       string
	ChromeBin       string

	TargetType     string
	GeocodeBaseURL string
	GeocodeCache   bool

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"user_agent":         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"google_api_key":     "",
	"db_driver":          DriverSQLite,
	"db_dsn":             "house_price.sqlite",
	"csv_output_path":    "house_price.csv",
	"map_output_path":    "house_price_map.html",
	"source_base_url":    "https://evertrust.yungching.com.tw",
	"search_city":        "新竹市",
	"search_district":    "東區",
	"search_keyword":     "慈雲路",
	"search_deal_type":   "2",
	"search_period":      "12",
	"search_lat":         24.7915659664812,
	"search_lng":         121.012094991928,
	"max_pages":          26,
	"stop_on_empty_page": true,
	"fetch_mode":         FetchModeHTTP,
	"chrome_bin":         "",
	"target_type":        "電梯大樓",
	"geocode_base_url":   "https://maps.googleapis.com",
	"geocode_cache":      false,
	"log_level":          "info",
	"log_format":         "console",
}

// Load reads the .env file, an optional YAML config file and the environment,
// in increasing order of precedence. When configFile is empty, scraper.yaml
// is looked up in ./config and the working directory and may be absent.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("scraper")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	cfg := &Config{
		UserAgent:    v.GetString("user_agent"),
		GoogleAPIKey: v.GetString("google_api_key"),

		DBDriver: strings.ToLower(v.GetString("db_driver")),
		DBDSN:    v.GetString("db_dsn"),

		CSVOutputPath: v.GetString("csv_output_path"),
		MapOutputPath: v.GetString("map_output_path"),

		SourceBaseURL:  strings.TrimRight(v.GetString("source_base_url"), "/"),
		SearchCity:     v.GetString("search_city"),
		SearchDistrict: v.GetString("search_district"),
		SearchKeyword:  v.GetString("search_keyword"),
		SearchDealType: v.GetString("search_deal_type"),
		SearchPeriod:   v.GetString("search_period"),
		SearchLat:      v.GetFloat64("search_lat"),
		SearchLng:      v.GetFloat64("search_lng"),

		MaxPages:        v.GetInt("max_pages"),
		StopOnEmptyPage: v.GetBool("stop_on_empty_page"),
		FetchMode:       strings.ToLower(v.GetString("fetch_mode")),
		ChromeBin:       v.GetString("chrome_bin"),

		TargetType:     v.GetString("target_type"),
		GeocodeBaseURL: strings.TrimRight(v.GetString("geocode_base_url"), "/"),
		GeocodeCache:   v.GetBool("geocode_cache"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("config: unsupported fetch mode %q", c.FetchMode)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("config: max pages must be at least 1, got %d", c.MaxPages)
	}
	if c.DBDSN == "" {
		return errors.New("config: db dsn is empty")
	}
	return nil
}
