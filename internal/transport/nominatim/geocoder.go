package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	"github.com/kailas-cloud/itemradar/internal/domain/geo"
)

// Geocoder talks to the Nominatim API: forward geocoding of free-text
// locations and reverse geocoding of coordinates.
type Geocoder struct {
	baseURL    string
	userAgent  string
	client     *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

// Config holds Nominatim client settings.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	Logger     *zap.Logger
}

// NewGeocoder creates a Nominatim client.
func NewGeocoder(cfg *Config) *Geocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Geocoder{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		client:     &http.Client{Timeout: timeout},
		maxRetries: uint64(retries),
		logger:     cfg.Logger,
	}
}

// Geocode resolves a free-text location to an address and coordinates.
func (g *Geocoder) Geocode(ctx context.Context, query string) (geo.Place, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	// Nominatim returns lat/lon as strings.
	var parsed []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := g.getJSON(ctx, "/search", q, &parsed); err != nil {
		return geo.Place{}, err
	}
	if len(parsed) == 0 {
		return geo.Place{}, fmt.Errorf("no result for %q: %w", query, domain.ErrGeocodingFailed)
	}

	lat, latErr := strconv.ParseFloat(parsed[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(parsed[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return geo.Place{}, fmt.Errorf("bad coordinates for %q: %w", query, domain.ErrGeocodingFailed)
	}

	return geo.Place{Address: parsed[0].DisplayName, Latitude: lat, Longitude: lon}, nil
}

// ReverseGeocode returns the display address for the given coordinates.
func (g *Geocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")

	var parsed struct {
		DisplayName string `json:"display_name"`
	}
	if err := g.getJSON(ctx, "/reverse", q, &parsed); err != nil {
		return "", err
	}
	if parsed.DisplayName == "" {
		return "", fmt.Errorf("no address for %v,%v: %w", lat, lon, domain.ErrGeocodingFailed)
	}

	return parsed.DisplayName, nil
}

// getJSON performs a GET with retry/backoff. 429 and 5xx responses and
// transport errors are retried; other non-200 statuses are permanent.
func (g *Geocoder) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+q.Encode(), http.NoBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("User-Agent", g.userAgent)

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("geocode request: %w: %v", domain.ErrGeocodingFailed, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("geocode status %d: %w", resp.StatusCode, domain.ErrGeocodingFailed)
		default:
			return backoff.Permanent(fmt.Errorf("geocode status %d: %w", resp.StatusCode, domain.ErrGeocodingFailed))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", domain.ErrGeocodingFailed))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		g.logger.Warn("Geocoding failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
