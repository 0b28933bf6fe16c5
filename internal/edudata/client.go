package edudata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"edequity/internal/config"
	apperrors "edequity/internal/errors"
	"edequity/internal/infrastructure"
)

const userAgent = "edequity/" + config.AppVersion

// ClientConfig carries the tunables for a Client
type ClientConfig struct {
	BaseURL string
	Vintage string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client fetches dataset collections from the education statistics API.
// Responses are paginated envelopes; the client walks every page before
// returning. There is no retry policy: a single analytical run aborts
// on the first failure rather than papering over partial data.
type Client struct {
	baseURL    string
	vintage    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *infrastructure.PipelineMetrics
}

// NewClient creates a Client from configuration
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		vintage: cfg.Vintage,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger,
	}
}

// WithMetrics attaches pipeline metrics recording to the client
func (c *Client) WithMetrics(m *infrastructure.PipelineMetrics) *Client {
	c.metrics = m
	return c
}

// envelope is the provider's paginated response wrapper
type envelope[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// datasetURL builds the first-page URL for a dataset request
func (c *Client) datasetURL(req DatasetRequest) string {
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.vintage, req.Path())
	if req.AddLabels {
		u += "?add_labels=true"
	}
	return u
}

// fetchDataset retrieves every page of one dataset collection, in order
func fetchDataset[T any](ctx context.Context, c *Client, req DatasetRequest) ([]T, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid dataset request %s", req), err)
	}

	dataset := req.Topic
	if req.Subtopic != "" {
		dataset = req.Topic + "_" + req.Subtopic
	}

	var rows []T
	pageURL := c.datasetURL(req)
	pages := 0

	for pageURL != "" {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.NewNetworkError("rate limiter wait interrupted", err)
		}

		env, status, elapsed, err := fetchPage[T](ctx, c, pageURL)
		infrastructure.RecordAPIRequest(ctx, c.metrics, dataset, elapsed, status)
		if err != nil {
			return nil, err
		}

		rows = append(rows, env.Results...)
		pages++

		c.logger.DebugContext(ctx, "fetched dataset page",
			slog.String("dataset", dataset),
			slog.Int("page", pages),
			slog.Int("page_rows", len(env.Results)),
			slog.Int("total_rows", len(rows)),
			slog.Int("reported_count", env.Count))

		if env.Next != nil && *env.Next != "" {
			pageURL = *env.Next
		} else {
			pageURL = ""
		}
	}

	c.logger.InfoContext(ctx, "dataset fetched",
		slog.String("dataset", dataset),
		slog.Int("year", req.Year),
		slog.Int("pages", pages),
		slog.Int("rows", len(rows)))

	infrastructure.RecordRowsFetched(ctx, c.metrics, dataset, int64(len(rows)))

	return rows, nil
}

// fetchPage issues one page request and decodes its envelope
func fetchPage[T any](ctx context.Context, c *Client, pageURL string) (envelope[T], int, time.Duration, error) {
	var env envelope[T]

	if _, err := url.Parse(pageURL); err != nil {
		return env, 0, 0, apperrors.NewNetworkError(
			fmt.Sprintf("malformed page URL %q", pageURL), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return env, 0, 0, apperrors.NewNetworkError("failed to create request", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return env, 0, elapsed, apperrors.NewNetworkError(
			fmt.Sprintf("request to %s failed", pageURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return env, resp.StatusCode, elapsed, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, pageURL), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, resp.StatusCode, elapsed, apperrors.NewParsingError(
			fmt.Sprintf("failed to decode response from %s", pageURL), err)
	}

	return env, resp.StatusCode, elapsed, nil
}

// FetchFinance retrieves the finance survey for a year, scrubbed
func (c *Client) FetchFinance(ctx context.Context, year int) ([]FinanceRow, error) {
	rows, err := fetchDataset[FinanceRow](ctx, c, FinanceRequest(year))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = rows[i].Scrub()
	}
	return rows, nil
}

// FetchEnrollmentByRace retrieves enrollment counts by race for a year,
// scrubbed. All strata are returned; the reshaper filters to the Total
// sex/grade aggregate.
func (c *Client) FetchEnrollmentByRace(ctx context.Context, year int) ([]EnrollmentRow, error) {
	rows, err := fetchDataset[EnrollmentRow](ctx, c, EnrollmentByRaceRequest(year))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = rows[i].Scrub()
	}
	return rows, nil
}

// FetchDirectory retrieves the district directory for a year, scrubbed
func (c *Client) FetchDirectory(ctx context.Context, year int) ([]DirectoryRow, error) {
	rows, err := fetchDataset[DirectoryRow](ctx, c, DirectoryRequest(year))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = rows[i].Scrub()
	}
	return rows, nil
}

// FetchCostIndex retrieves the geographic cost index for a year, scrubbed
func (c *Client) FetchCostIndex(ctx context.Context, year int) ([]CostIndexRow, error) {
	rows, err := fetchDataset[CostIndexRow](ctx, c, CostIndexRequest(year))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = rows[i].Scrub()
	}
	return rows, nil
}
