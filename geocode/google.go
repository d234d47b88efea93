package geocode

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the Google Maps Platform host.
const DefaultBaseURL = "https://maps.googleapis.com"

const geocodePath = "/maps/api/geocode/json"

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GoogleClient calls the Google Geocoding API. Only the first candidate of
// each response is used.
type GoogleClient struct {
	httpClient *resty.Client
	apiKey     string
}

// NewGoogleClient creates a client for baseURL (DefaultBaseURL in production).
func NewGoogleClient(baseURL, apiKey string) *GoogleClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	return &GoogleClient{
		httpClient: client,
		apiKey:     apiKey,
	}
}

func (c *GoogleClient) Geocode(ctx context.Context, address string) (Location, error) {
	var body geocodeResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     c.apiKey,
		}).
		SetResult(&body).
		Get(geocodePath)
	if err != nil {
		return Location{}, fmt.Errorf("geocode: request %q: %w", address, err)
	}
	if !resp.IsSuccess() {
		return Location{}, fmt.Errorf("geocode: %q: http status %d", address, resp.StatusCode())
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Location{}, ErrNoResults
	default:
		return Location{}, fmt.Errorf("geocode: %q: %s %s", address, body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return Location{}, ErrNoResults
	}

	loc := body.Results[0].Geometry.Location
	return Location{Lat: loc.Lat, Lng: loc.Lng}, nil
}
