// Package serpapi implements the job search tool on top of the SerpAPI
// google_jobs engine. One Client is scoped to one pipeline run: it owns the
// run's search call budget and paces requests against the API's rate
// limits.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cv-job-matcher/internal/match"
)

const (
	defaultAPIURL = "https://serpapi.com/search.json"
	// defaultMaxCalls caps search-tool invocations per pipeline run.
	defaultMaxCalls = 3
)

// ErrBudgetExhausted signals that the per-run search call budget is spent.
// Callers treat it as a normal stop condition, not a failure.
var ErrBudgetExhausted = errors.New("search call budget exhausted")

type Client struct {
	apiKey   string
	logger   *zap.Logger
	limiter  *rate.Limiter
	maxCalls int

	HTTPClient *http.Client
	APIURL     string

	mu    sync.Mutex
	calls int
}

// New creates a search client with the given per-run call budget. A
// non-positive budget falls back to the default of three calls.
func New(apiKey string, maxCalls int, logger *zap.Logger) *Client {
	if maxCalls <= 0 {
		maxCalls = defaultMaxCalls
	}

	return &Client{
		apiKey:   apiKey,
		logger:   logger,
		maxCalls: maxCalls,
		// SerpAPI throttles aggressively on free plans; one request per
		// couple of seconds is safe.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		APIURL: defaultAPIURL,
	}
}

// CallsUsed reports how many budget slots this client has consumed.
func (c *Client) CallsUsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// ScrapeForJobs queries the google_jobs engine for postings matching the
// role keywords around the location. Results missing both title and
// description are dropped at this boundary.
func (c *Client) ScrapeForJobs(ctx context.Context, roleKeywords, location string, distance int) (match.RawJobs, error) {
	if err := c.spendBudget(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	location = normalizeLocation(location)
	if distance <= 0 {
		distance = 40
	}

	c.logger.Info("searching for jobs",
		zap.String("keywords", roleKeywords),
		zap.String("location", location),
		zap.Int("distance", distance),
	)

	q := url.Values{}
	q.Set("engine", "google_jobs")
	q.Set("q", roleKeywords)
	q.Set("location", location)
	q.Set("hl", "en")
	q.Set("gl", "uk")
	q.Set("lrad", strconv.Itoa(distance))
	q.Set("api_key", c.apiKey)

	var response searchResponse
	if err := c.getJSON(ctx, q, &response); err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}

	if response.Error != "" {
		return nil, fmt.Errorf("search api: %s", response.Error)
	}

	jobs := make(match.RawJobs, 0, len(response.JobsResults))
	for _, result := range response.JobsResults {
		job := result.toRawJob()
		if !job.Acceptable() {
			continue
		}
		jobs = append(jobs, job)
	}

	c.logger.Info("search completed",
		zap.String("keywords", roleKeywords),
		zap.Int("results", len(response.JobsResults)),
		zap.Int("accepted", jobs.Len()),
	)

	return jobs, nil
}

func (c *Client) spendBudget() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls >= c.maxCalls {
		return fmt.Errorf("%w: %d calls made", ErrBudgetExhausted, c.calls)
	}
	c.calls++
	return nil
}

func (c *Client) getJSON(ctx context.Context, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make request", zap.String("url", req.URL.Host+req.URL.Path))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	return json.Unmarshal(data, target)
}

func normalizeLocation(location string) string {
	location = strings.ToLower(strings.TrimSpace(location))
	return strings.ReplaceAll(location, "uk", "united kingdom")
}
