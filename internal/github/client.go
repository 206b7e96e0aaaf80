// Package github is a minimal REST client for the PR metadata the
// collector optionally enriches its reports with. The core pipeline
// never requires it: commit-subject parsing alone is sufficient when
// the API is unavailable or rate-limited.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"

	requestTimeout = 30 * time.Second
	maxRetries     = 3
	// Longest rate-limit reset we are willing to sit out in-process.
	maxRateLimitWait = time.Minute
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError is a 403 with the rate limit exhausted.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github api: rate limit exceeded, resets at %s (set GITHUB_TOKEN for higher limits)",
		e.Reset.Format(time.RFC3339))
}

// Token returns the API token from the environment, empty when unset.
func Token() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}

// Client talks to the GitHub REST API for one repository.
type Client struct {
	BaseURL string
	Repo    string // "owner/repo"

	http  *http.Client
	token string
}

// NewClient creates a client for the given repository slug, reading
// the token from GITHUB_TOKEN / GH_TOKEN.
func NewClient(repo string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Repo:    repo,
		http:    &http.Client{Timeout: requestTimeout},
		token:   Token(),
	}
}

// get issues one GET and decodes the JSON response into v, retrying
// with backoff when the rate limit is exhausted and the reset is near.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	u := c.BaseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", apiVersion)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("github api: %w", err)
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("github api: reading response: %w", readErr)
		}

		if resp.StatusCode == http.StatusOK {
			if v == nil {
				return nil
			}
			return json.Unmarshal(body, v)
		}

		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			reset := parseReset(resp.Header.Get("X-RateLimit-Reset"))
			wait := time.Until(reset) + time.Second
			if attempt < maxRetries-1 && wait > 0 && wait < maxRateLimitWait {
				select {
				case <-time.After(wait):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return &RateLimitError{Reset: reset}
		}

		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

func parseReset(header string) time.Time {
	sec, err := strconv.ParseInt(header, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(sec, 0)
}

// Pagination constants shared by the list endpoints: full pages of 100
// until a short page or the page cap.
const (
	perPage  = 100
	maxPages = 10
)
