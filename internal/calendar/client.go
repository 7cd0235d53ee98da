// Package calendar assembles report inputs from the farm calendar service when no
// document is uploaded.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/internal/extract"
	"github.com/agstack/OpenAgri-ReportingService/internal/metrics"
)

// Endpoints are the calendar sub-resource paths, relative to the client base URL.
type Endpoints struct {
	Operations    string
	Observations  string
	ActivityTypes string
	Machines      string
	Parcels       string
	Farms         string
	Irrigations   string
	Animals       string
	Materials     string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Operations:    "FarmCalendarActivities/",
		Observations:  "Observations/",
		ActivityTypes: "FarmCalendarActivityTypes/",
		Machines:      "AgriculturalMachines/",
		Parcels:       "FarmParcels/",
		Farms:         "Farm/",
		Irrigations:   "IrrigationOperations/",
		Animals:       "FarmAnimals/",
		Materials:     "AddRawMaterialOperations/",
	}
}

// Client performs single-attempt GETs against the calendar, forwarding the caller's
// bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient returns a client for baseURL, e.g. http://gatekeeper:8001/api/proxy/farmcalendar/api/v1/.
func NewClient(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 25 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{baseURL: baseURL, http: httpClient, log: log.Named("calendar")}
}

// Get returns the body of a 2xx response. Transport failures and other statuses are
// UpstreamUnavailable errors carrying the status code.
func (c *Client) Get(ctx context.Context, path string, params url.Values, token string) ([]byte, error) {
	u := c.baseURL + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDuration.WithLabelValues("farmcalendar").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("farmcalendar", "error").Inc()
		return nil, apperr.Upstream(0, err, "Gatekeeper API returned an error.")
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues("farmcalendar", strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(resp.StatusCode, err, "Gatekeeper API returned an error.")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("calendar non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)))
		return nil, apperr.Upstream(resp.StatusCode, nil, "Gatekeeper API returned an error.")
	}
	return body, nil
}

// Nodes GETs path and normalises the answer into a document.
func (c *Client) Nodes(ctx context.Context, path string, params url.Values, token string) (*extract.Document, error) {
	body, err := c.Get(ctx, path, params, token)
	if err != nil {
		return nil, err
	}
	return extract.ParseLoose(body)
}
