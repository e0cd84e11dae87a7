package httputil

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"
)

// DefaultMaxRateLimitWait caps how long a request waits for a Helix rate limit bucket to refill.
const DefaultMaxRateLimitWait = time.Minute

// RetryOn429 runs do and, when the response is 429 Too Many Requests with a usable
// Ratelimit-Reset header, waits until the reset time and runs do exactly once more.
// Waits longer than maxWait are not attempted; the 429 response is returned instead.
func RetryOn429(ctx context.Context, maxWait time.Duration, do func() (*http.Response, error)) (*http.Response, error) {
	resp, err := do()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	waitUntil, err := strconv.ParseInt(resp.Header.Get("Ratelimit-Reset"), 10, 64)
	if err != nil {
		return resp, nil
	}

	// one extra second, the reset timestamp has second granularity
	wait := time.Until(time.Unix(waitUntil, 0)) + time.Second
	if maxWait > 0 && wait > maxWait {
		return resp, nil
	}

	resp.Body.Close()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return do()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RateLimitRetryTransport retries requests rejected by the Helix rate limiter.
type RateLimitRetryTransport struct {
	Transport http.RoundTripper

	// MaxWait defaults to DefaultMaxRateLimitWait.
	MaxWait time.Duration

	// SkipPaths are URL paths whose 429 responses are returned as is.
	SkipPaths []string
}

func (t *RateLimitRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := t.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}

	if slices.Contains(t.SkipPaths, req.URL.Path) {
		return rt.RoundTrip(req)
	}

	maxWait := t.MaxWait
	if maxWait == 0 {
		maxWait = DefaultMaxRateLimitWait
	}

	retry, err := CloneRequest(req)
	if err != nil {
		return nil, err
	}

	sent := false
	return RetryOn429(req.Context(), maxWait, func() (*http.Response, error) {
		if !sent {
			sent = true
			return rt.RoundTrip(req)
		}

		return rt.RoundTrip(retry)
	})
}
