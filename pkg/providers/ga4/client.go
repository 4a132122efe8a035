// Package ga4 fetches traffic metrics from the Google Analytics Data API.
package ga4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/dealersight/dealersight/pkg/httpclient"
	"github.com/dealersight/dealersight/pkg/metrics"
	"github.com/dealersight/dealersight/pkg/models"
	"github.com/dealersight/dealersight/pkg/tracing"
)

const providerName = "ga4"

// Client calls the GA4 Data API runReport endpoint.
type Client struct {
	http     *httpclient.Client
	endpoint string
	logger   ectologger.Logger
}

// NewClient creates a GA4 client. The endpoint is the API base URL without a
// trailing slash, normally https://analyticsdata.googleapis.com.
func NewClient(http *httpclient.Client, endpoint string, logger ectologger.Logger) *Client {
	return &Client{
		http:     http,
		endpoint: endpoint,
		logger:   logger,
	}
}

type runReportRequest struct {
	DateRanges []dateRange  `json:"dateRanges"`
	Metrics    []metricSpec `json:"metrics"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type metricSpec struct {
	Name string `json:"name"`
}

type runReportResponse struct {
	MetricHeaders []struct {
		Name string `json:"name"`
	} `json:"metricHeaders"`
	Rows []struct {
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

var reportMetrics = []metricSpec{
	{Name: "sessions"},
	{Name: "totalUsers"},
	{Name: "newUsers"},
	{Name: "screenPageViews"},
	{Name: "bounceRate"},
	{Name: "engagementRate"},
}

// FetchReport runs a traffic report for a property over a date window.
func (c *Client) FetchReport(ctx context.Context, accessToken, propertyID string, start, end time.Time) (*models.GA4Data, error) {
	ctx, span := tracing.StartSpan(ctx, "ga4.Client.FetchReport")
	defer span.End()

	body, err := json.Marshal(runReportRequest{
		DateRanges: []dateRange{{
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		}},
		Metrics: reportMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build runReport request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/properties/%s:runReport", c.endpoint, propertyID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build runReport request: %w", err)
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
			"property_id": propertyID,
			"status_code": resp.StatusCode,
		}).Warn("GA4 runReport returned a non-200 status")
		metrics.ProviderErrorsTotal.WithLabelValues(providerName).Inc()
		return nil, fmt.Errorf("GA4 runReport returned status %d", resp.StatusCode)
	}

	var report runReportResponse
	if err := json.Unmarshal(resp.Body, &report); err != nil {
		return nil, fmt.Errorf("failed to parse runReport response: %w", err)
	}

	return buildData(propertyID, &report), nil
}

// buildData folds report rows into a single totals struct. Properties with no
// traffic return zero rows; that is a valid empty report, not an error.
func buildData(propertyID string, report *runReportResponse) *models.GA4Data {
	data := &models.GA4Data{PropertyID: propertyID}

	for _, row := range report.Rows {
		for i, value := range row.MetricValues {
			if i >= len(report.MetricHeaders) {
				break
			}
			switch report.MetricHeaders[i].Name {
			case "sessions":
				data.Sessions += parseInt(value.Value)
			case "totalUsers":
				data.TotalUsers += parseInt(value.Value)
			case "newUsers":
				data.NewUsers += parseInt(value.Value)
			case "screenPageViews":
				data.PageViews += parseInt(value.Value)
			case "bounceRate":
				data.BounceRate = parseFloat(value.Value)
			case "engagementRate":
				data.EngagementRate = parseFloat(value.Value)
			}
		}
	}

	return data
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
