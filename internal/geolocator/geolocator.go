// Package geolocator turns a latitude/longitude pair into an administrative address
// using the HERE reverse geocoding API. Results are cached in Redis per coordinate.
package geolocator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"satgas-data/internal/domain"
	"satgas-data/internal/store"
)

var ErrNoResult = errors.New("geolocator: no address for coordinate")

// Locator is what the user service needs.
type Locator interface {
	Reverse(ctx context.Context, lat, lon float64) (*domain.LocationInfo, error)
}

type revGeocodeResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Address struct {
			Label       string `json:"label"`
			CountryCode string `json:"countryCode"`
			State       string `json:"state"`
			County      string `json:"county"`
			City        string `json:"city"`
			District    string `json:"district"`
			Subdistrict string `json:"subdistrict"`
		} `json:"address"`
	} `json:"items"`
}

type Client struct {
	http     *resty.Client
	apiKey   string
	cache    store.KV
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewClient cache may be nil.
func NewClient(baseURL, apiKey string, timeout time.Duration, cache store.KV, cacheTTL time.Duration, logger *zap.Logger) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: hc, apiKey: apiKey, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

var _ Locator = (*Client)(nil)

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.5f,%.5f", lat, lon)
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*domain.LocationInfo, error) {
	key := cacheKey(lat, lon)
	if c.cache != nil {
		var cached domain.LocationInfo
		err := store.GetJSON(ctx, c.cache, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, store.ErrMiss) {
			c.logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	var out revGeocodeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"at":     fmt.Sprintf("%f,%f", lat, lon),
			"lang":   "id-ID",
			"limit":  "1",
			"apiKey": c.apiKey,
		}).
		SetResult(&out).
		Get("/v1/revgeocode")
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode())
	}
	if len(out.Items) == 0 {
		return nil, ErrNoResult
	}

	addr := out.Items[0].Address
	info := &domain.LocationInfo{
		CountryCode: addr.CountryCode,
		Province:    addr.State,
		City:        firstNonEmpty(addr.City, addr.County),
		District:    firstNonEmpty(addr.District),
		Subdistrict: firstNonEmpty(addr.Subdistrict),
		Label:       addr.Label,
	}
	if info.Label == "" {
		info.Label = out.Items[0].Title
	}

	if c.cache != nil {
		if err := store.SetJSON(ctx, c.cache, key, info, c.cacheTTL); err != nil {
			c.logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return info, nil
}

func firstNonEmpty(vals ...string) *string {
	for _, v := range vals {
		if v != "" {
			s := v
			return &s
		}
	}
	return nil
}
