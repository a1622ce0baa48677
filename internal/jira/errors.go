package jira

import (
	"fmt"
	"time"
)

// RateLimitError signals that Jira is throttling us. ResumeAt is the instant
// the server said (or we guessed) the limit lifts.
// See: https://developer.atlassian.com/cloud/jira/platform/rate-limiting/
type RateLimitError struct {
	ResumeAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("jira: rate limited until %s", e.ResumeAt.Format(time.RFC3339))
}

// Retryable marks the error as safe to retry once the limit lifts.
func (e *RateLimitError) Retryable() bool { return true }

// RetryAfter reports how long to wait before the next attempt.
func (e *RateLimitError) RetryAfter() (time.Duration, bool) {
	d := time.Until(e.ResumeAt)
	if d < 0 {
		d = 0
	}
	return d, true
}

// DecodeError wraps a JSON decoding failure and keeps the raw body around
// for diagnostics; Jira occasionally changes response shapes without notice.
type DecodeError struct {
	Err  error
	Body []byte
}

func (e *DecodeError) Error() string {
	body := string(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("jira: decode failed: %v: %s", e.Err, body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError is any non-2xx response that is not a rate limit.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jira: api status=%d body=%s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt (5xx only;
// 4xx means the request itself is wrong).
func (e *StatusError) Retryable() bool { return e.Code >= 500 }
