// Package geocode resolves parcel coordinates to a display address through a
// Nominatim-compatible reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/metrics"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "openagri-reporting"
	cacheTTL         = 24 * time.Hour
)

// Client is safe for concurrent use. Results are cached per coordinate pair and
// concurrent lookups for the same pair share one upstream call.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	cache     *cache.Cache
	group     singleflight.Group
	log       *zap.Logger
}

func New(baseURL, userAgent string, httpClient *http.Client, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
		log:       log.Named("geocode"),
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse returns the display address for lat/long.
func (c *Client) Reverse(ctx context.Context, lat, long float64) (string, error) {
	key := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(long, 'f', 6, 64)
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		addr, err := c.reverse(ctx, lat, long)
		if err != nil {
			return "", err
		}
		c.cache.Set(key, addr, cache.DefaultExpiration)
		return addr, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) reverse(ctx context.Context, lat, long float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(long, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues("geocoder").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("geocoder", "error").Inc()
		return "", apperr.Upstream(0, err, "geocoder call failed")
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues("geocoder", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.Upstream(resp.StatusCode, nil, "geocoder returned an error")
	}

	var out reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Upstream(resp.StatusCode, err, "decode geocoder response")
	}
	if out.Error != "" {
		return "", apperr.Upstream(resp.StatusCode, nil, out.Error)
	}
	c.log.Debug("reverse geocoded", zap.Float64("lat", lat), zap.Float64("long", long))
	return out.DisplayName, nil
}
