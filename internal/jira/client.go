/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/HamedShams/sprint-pulse/internal/config"
	"github.com/rs/zerolog"
)

// rateLimitResetFormat is the format of the x-ratelimit-reset header,
// derived from actual responses: "2024-01-01T10:00+0000".
const rateLimitResetFormat = "2006-01-02T15:04Z0700"

// rateLimitFallback is an educated guess based on experience with the live
// API when neither reset header is present. Usually it is 2-4 minutes tops.
const rateLimitFallback = 4 * time.Minute

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives per-request metrics. May be nil.
type Recorder interface {
	RecordRequest(endpoint, status string)
	RecordRateLimited()
}

// Client is the one primitive every fetcher goes through: it builds the
// cookie-authenticated request, detects rate limiting and decodes the typed
// response. It never retries; retry policy belongs to the caller.
type Client struct {
	baseURL string
	cookie  string
	http    HTTPClient
	log     zerolog.Logger
	rec     Recorder
	now     func() time.Time
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.JiraBaseURL,
		cookie:  cfg.JiraCookie,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log.With().Str("component", "jira").Logger(),
		now:     time.Now,
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) { c.http = hc }

// SetRecorder attaches a metrics recorder.
func (c *Client) SetRecorder(r Recorder) { c.rec = r }

// newRequest builds a GET request with the fixed header set the Jira Cloud
// API expects from a browser-session client. The session cookie is the only
// authentication; there is no token refresh.
func (c *Client) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", c.cookie)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	// Accept-Encoding is left to the transport so gzip stays transparent.
	return req, nil
}

func (c *Client) apiURL(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return u
}

// getJSON performs one authenticated GET and decodes the body into out.
// endpoint is a low-cardinality label for logging and metrics.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.apiURL(path, q)
	req, err := c.newRequest(ctx, u)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(endpoint, "transport_error")
		return err
	}
	defer resp.Body.Close()

	if rl := c.rateLimited(resp); rl != nil {
		c.record(endpoint, "rate_limited")
		if c.rec != nil {
			c.rec.RecordRateLimited()
		}
		c.log.Warn().Str("endpoint", endpoint).Time("resume_at", rl.ResumeAt).Msg("rate limited by jira")
		return rl
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.record(endpoint, strconv.Itoa(resp.StatusCode))
		return &StatusError{Code: resp.StatusCode, Body: body}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(endpoint, "read_error")
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.record(endpoint, "decode_error")
		c.log.Error().Str("endpoint", endpoint).Str("url", u).Err(err).Msg("could not decode response")
		return &DecodeError{Err: err, Body: body}
	}
	c.record(endpoint, "ok")
	return nil
}

// rateLimited inspects a response for Jira's throttling signals: a 429
// status or an x-ratelimit-reset header. The resume time is taken from
// x-ratelimit-reset if parseable, else Retry-After seconds, else a
// conservative fallback.
func (c *Client) rateLimited(resp *http.Response) *RateLimitError {
	reset := resp.Header.Get("x-ratelimit-reset")
	if resp.StatusCode != http.StatusTooManyRequests && reset == "" {
		return nil
	}
	if reset != "" {
		if t, err := time.Parse(rateLimitResetFormat, reset); err == nil {
			return &RateLimitError{ResumeAt: t}
		}
		c.log.Warn().Str("x-ratelimit-reset", reset).Msg("unparseable rate limit reset header")
	}
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			return &RateLimitError{ResumeAt: c.now().Add(time.Duration(secs) * time.Second)}
		}
	}
	return &RateLimitError{ResumeAt: c.now().Add(rateLimitFallback)}
}

func (c *Client) record(endpoint, status string) {
	if c.rec != nil {
		c.rec.RecordRequest(endpoint, status)
	}
}
