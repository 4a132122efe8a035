// Package searchconsole fetches search performance metrics from the Google
// Search Console API.
package searchconsole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/dealersight/dealersight/pkg/httpclient"
	"github.com/dealersight/dealersight/pkg/metrics"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/tracing"
)

const providerName = "search_console"

// Client calls the Search Console searchAnalytics query endpoint.
type Client struct {
	http     *httpclient.Client
	endpoint string
	logger   ectologger.Logger
}

// NewClient creates a Search Console client. The endpoint is the API base URL
// without a trailing slash, normally https://www.googleapis.com.
func NewClient(http *httpclient.Client, endpoint string, logger ectologger.Logger) *Client {
	return &Client{
		http:     http,
		endpoint: endpoint,
		logger:   logger,
	}
}

type queryRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type queryResponse struct {
	Rows []struct {
		Clicks      float64 `json:"clicks"`
		Impressions float64 `json:"impressions"`
		CTR         float64 `json:"ctr"`
		Position    float64 `json:"position"`
	} `json:"rows"`
}

// FetchPerformance queries search performance for a verified site over a
// date window.
func (c *Client) FetchPerformance(ctx context.Context, accessToken, siteURL string, start, end time.Time) (*models.SearchConsoleData, error) {
	ctx, span := tracing.StartSpan(ctx, "searchconsole.Client.FetchPerformance")
	defer span.End()

	body, err := json.Marshal(queryRequest{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/webmasters/v3/sites/%s/searchAnalytics/query",
		c.endpoint, url.PathEscape(siteURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(ctx, req)
	metrics.RecordProviderRequest(providerName, time.Since(started).Seconds(), err)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"site_url":    siteURL,
			"status_code": resp.StatusCode,
		}).Warn("Search Console query returned a non-200 status")
		metrics.ProviderErrorsTotal.WithLabelValues(providerName).Inc()
		return nil, fmt.Errorf("Search Console query returned status %d", resp.StatusCode)
	}

	var result queryResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	return buildData(siteURL, &result), nil
}

// buildData totals clicks and impressions and averages the rate metrics.
// Sites with no search traffic return zero rows, which is a valid empty
// result.
func buildData(siteURL string, result *queryResponse) *models.SearchConsoleData {
	data := &models.SearchConsoleData{SiteURL: siteURL}

	if len(result.Rows) == 0 {
		return data
	}

	var ctrSum, positionSum float64
	for _, row := range result.Rows {
		data.Clicks += int64(row.Clicks)
		data.Impressions += int64(row.Impressions)
		ctrSum += row.CTR
		positionSum += row.Position
	}

	data.CTR = ctrSum / float64(len(result.Rows))
	data.Position = positionSum / float64(len(result.Rows))
	return data
}
