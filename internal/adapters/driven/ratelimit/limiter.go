// Package ratelimit throttles outbound provider calls.
//
// A Limiter combines a proactive token bucket with reactive tracking of the
// quota headers a provider returns, and converts 429 responses into *Error.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// ResetFormat describes how a provider encodes its quota reset header.
type ResetFormat int

const (
	// ResetUnix is a Unix timestamp in seconds.
	ResetUnix ResetFormat = iota
	// ResetDuration is a Go-style duration such as "6m0s" or "20ms".
	ResetDuration
	// ResetRFC3339 is an absolute RFC 3339 timestamp.
	ResetRFC3339
)

// Headers names the quota headers of one provider.
type Headers struct {
	Limit     string
	Remaining string
	Reset     string
	Format    ResetFormat
}

// Known provider header sets.
var (
	OpenAIHeaders = Headers{
		Limit:     "X-Ratelimit-Limit-Requests",
		Remaining: "X-Ratelimit-Remaining-Requests",
		Reset:     "X-Ratelimit-Reset-Requests",
		Format:    ResetDuration,
	}
	AnthropicHeaders = Headers{
		Limit:     "Anthropic-Ratelimit-Requests-Limit",
		Remaining: "Anthropic-Ratelimit-Requests-Remaining",
		Reset:     "Anthropic-Ratelimit-Requests-Reset",
		Format:    ResetRFC3339,
	}
)

// Config configures a Limiter.
type Config struct {
	// RequestsPerSecond is the proactive throttle rate. Zero disables it.
	RequestsPerSecond float64
	// Burst is the token bucket size (default 1).
	Burst int
	// MinBuffer is the remaining-request floor below which Wait blocks until reset.
	MinBuffer int
	Headers   Headers
}

// Error reports that the provider rejected a request for exceeding its quota.
type Error struct {
	ResetAt   time.Time
	Remaining int
	Limit     int
}

func (e *Error) Error() string {
	if e.ResetAt.IsZero() {
		return "rate limit exceeded"
	}
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Limiter implements dual-strategy rate limiting for a provider API.
type Limiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
	headers   Headers
	now       func() time.Time
}

// New creates a limiter. The quota is assumed unknown until a response is seen.
func New(cfg Config) *Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Limiter{
		remaining: -1,
		limit:     -1,
		bucket:    rate.NewLimiter(limit, burst),
		minBuffer: cfg.MinBuffer,
		headers:   cfg.Headers,
		now:       time.Now,
	}
}

// Wait blocks until it's safe to make a request.
func (r *Limiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining >= 0 && remaining <= r.minBuffer && r.now().Before(resetTime) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resetTime.Sub(r.now())):
		}
	}
	return nil
}

// UpdateFromResponse updates quota state from response headers.
func (r *Limiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v := headerInt(resp, r.headers.Remaining); v >= 0 {
		r.remaining = v
	}
	if v := headerInt(resp, r.headers.Limit); v >= 0 {
		r.limit = v
	}
	if t, ok := r.parseReset(resp.Header.Get(r.headers.Reset)); ok {
		r.resetTime = t
	}
}

// CheckResponse records quota state and returns *Error for 429 responses.
func (r *Limiter) CheckResponse(resp *http.Response) error {
	if resp == nil {
		return nil
	}
	r.UpdateFromResponse(resp)
	if resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	r.mu.Lock()
	e := &Error{ResetAt: r.resetTime, Remaining: r.remaining, Limit: r.limit}
	r.mu.Unlock()

	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			e.ResetAt = r.now().Add(time.Duration(seconds) * time.Second)
		}
	}
	return e
}

// Remaining returns the last reported remaining requests, or -1 if unknown.
func (r *Limiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the last reported request limit, or -1 if unknown.
func (r *Limiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns the quota reset time.
func (r *Limiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}

func (r *Limiter) parseReset(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	switch r.headers.Format {
	case ResetDuration:
		d, err := time.ParseDuration(v)
		if err != nil {
			return time.Time{}, false
		}
		return r.now().Add(d), true
	case ResetRFC3339:
		t, err := time.Parse(time.RFC3339, v)
		return t, err == nil
	default:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	}
}

func headerInt(resp *http.Response, name string) int {
	if name == "" {
		return -1
	}
	v := resp.Header.Get(name)
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
