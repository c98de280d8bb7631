// Package plausible is the client for the Plausible Analytics stats API.
// It issues one aggregate query per tracked URL and normalizes the response
// into a small stats record.
package plausible

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const aggregateEndpoint = "/api/v1/stats/aggregate"

// Stat is one normalized day/visitors/url triple extracted from an
// aggregate response.
type Stat struct {
	Date     string
	Visitors int64
	URL      string
}

// Client queries the Plausible stats API for a fixed site, authenticated
// with a static bearer token.
type Client struct {
	http   *resty.Client
	siteID string
}

// Config carries the provider coordinates and credentials.
type Config struct {
	APIBase        string
	SiteID         string
	APIKey         string
	RequestTimeout time.Duration
}

type metricValue struct {
	Value json.RawMessage `json:"value"`
}

type aggregateResults struct {
	Time     *metricValue `json:"time"`
	Visitors *metricValue `json:"visitors"`
	Dim1     *metricValue `json:"dim1"`
}

type aggregateResponse struct {
	Results *aggregateResults `json:"results"`
}

// New builds a Client from the given provider configuration.
func New(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.APIBase).
		SetTimeout(cfg.RequestTimeout).
		SetAuthToken(cfg.APIKey)

	return &Client{
		http:   httpClient,
		siteID: cfg.SiteID,
	}
}

func buildFilters(linkURL string) (string, error) {
	filters := [][]interface{}{
		{"is", "event:props:url", []string{linkURL}},
	}

	encoded, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

func (v *metricValue) asString(fallback string) string {
	if v == nil || len(v.Value) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(v.Value, &s); err != nil {
		return fallback
	}

	return s
}

func (v *metricValue) asInt64() int64 {
	if v == nil || len(v.Value) == 0 {
		return 0
	}

	var n int64
	if err := json.Unmarshal(v.Value, &n); err != nil {
		return 0
	}

	return n
}

// FetchStats queries the provider for the last 7 days of visitors of the
// given URL, grouped by day and URL. A well-formed response yields exactly
// one Stat; transport failures, non-2xx statuses and responses without a
// `results` field are returned as errors so that callers can tell
// "no visits" from "fetch failed".
func (c *Client) FetchStats(ctx context.Context, linkURL string) ([]Stat, error) {
	filters, err := buildFilters(linkURL)
	if err != nil {
		return nil, fmt.Errorf("encode stats filters: %w", err)
	}

	query := url.Values{}
	query.Set("site_id", c.siteID)
	query.Set("metrics", "visitors")
	query.Set("date_range", "7d")
	query.Add("dimensions", "time:day")
	query.Add("dimensions", "event:props:url")
	query.Set("filters", filters)
	query.Add("order_by", "time:day")

	var body aggregateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		SetResult(&body).
		Get(aggregateEndpoint)
	if err != nil {
		return nil, fmt.Errorf("query stats provider: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("stats provider replied with status %d", resp.StatusCode())
	}
	if body.Results == nil {
		return nil, fmt.Errorf("unexpected response format: results is missing")
	}

	return []Stat{
		{
			Date:     body.Results.Time.asString("Unknown"),
			Visitors: body.Results.Visitors.asInt64(),
			URL:      body.Results.Dim1.asString("Unknown"),
		},
	}, nil
}
