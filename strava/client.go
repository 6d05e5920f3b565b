package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://www.strava.com/api/v3"
	DefaultPerPage    = 100
	MaxPerPage        = 200
	defaultRetryAfter = 900 * time.Second
)

// TokenProvider returns a valid bearer token for the next request.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	Tokens     TokenProvider
	UserAgent  string
	HTTPClient httpDoer
	Limiter    *RateLimiter
	Logger     *slog.Logger
}

type HTTPClient struct {
	baseURL    string
	tokens     TokenProvider
	userAgent  string
	httpClient httpDoer
	limiter    *RateLimiter
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token provider is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPClient{
		baseURL:    baseURL,
		tokens:     cfg.Tokens,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

type ListOptions struct {
	// After limits the listing to activities that started later. Zero lists all.
	After    time.Time
	PerPage  int
	MaxPages int
}

// ListActivities pages through /athlete/activities until an empty or short
// page, or until MaxPages pages were read.
func (c *HTTPClient) ListActivities(ctx context.Context, options ListOptions) ([]Activity, error) {
	perPage := options.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		return nil, fmt.Errorf("per page must be at most %d, got %d", MaxPerPage, perPage)
	}

	activities := make([]Activity, 0, perPage)
	for page := 1; options.MaxPages <= 0 || page <= options.MaxPages; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))
		if !options.After.IsZero() {
			query.Set("after", strconv.FormatInt(options.After.Unix(), 10))
		}

		var batch []Activity
		if err := c.getJSON(ctx, "/athlete/activities", query, &batch); err != nil {
			return nil, err
		}
		c.logger.Debug("activities page fetched", "page", page, "count", len(batch))
		if len(batch) == 0 {
			break
		}

		activities = append(activities, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return activities, nil
}

// getJSON sends one authenticated GET. A 429 answer is waited out once.
func (c *HTTPClient) getJSON(ctx context.Context, endpointPath string, query url.Values, out any) error {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return err
		}

		endpoint := c.baseURL + endpointPath
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request GET %s: %w", endpointPath, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
		}
		c.limiter.Record()

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if attempt > 0 {
				return &RateLimitError{
					Endpoint:   endpointPath,
					RetryAfter: retryAfter,
					Body:       strings.TrimSpace(string(responseBody)),
				}
			}
			c.logger.Warn("rate limited by Strava, waiting", "retry_after", retryAfter)
			if err := c.limiter.Pause(ctx, retryAfter); err != nil {
				return err
			}
			continue
		}

		return decodeResponse(resp, endpointPath, out)
	}
}

func decodeResponse(resp *http.Response, endpointPath string, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request GET %s failed with status %d: %s",
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}

func parseRetryAfter(value string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
