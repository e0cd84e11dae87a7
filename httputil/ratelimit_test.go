package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func rateLimited(reset string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header: http.Header{
			"Ratelimit-Reset": []string{reset},
		},
		Body: io.NopCloser(strings.NewReader("rate limited")),
	}
}

func TestRetryOn429(t *testing.T) {
	t.Parallel()

	t.Run("returns immediately on non-429 response", func(t *testing.T) {
		t.Parallel()

		callCount := 0
		resp, err := RetryOn429(context.Background(), time.Minute, func() (*http.Response, error) {
			callCount++
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}, nil
		})

		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 1, callCount)
	})

	t.Run("returns 429 when reset header is missing or invalid", func(t *testing.T) {
		t.Parallel()

		for _, reset := range []string{"", "invalid"} {
			callCount := 0
			resp, err := RetryOn429(context.Background(), time.Minute, func() (*http.Response, error) {
				callCount++
				return rateLimited(reset), nil
			})

			require.NoError(t, err)
			require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
			require.Equal(t, 1, callCount, "should not retry for reset header %q", reset)
		}
	})

	t.Run("retries once after reset time", func(t *testing.T) {
		t.Parallel()

		resetTime := time.Now().Unix()
		callCount := 0

		resp, err := RetryOn429(context.Background(), time.Minute, func() (*http.Response, error) {
			callCount++
			if callCount == 1 {
				return rateLimited(strconv.FormatInt(resetTime, 10)), nil
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}, nil
		})

		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 2, callCount)
	})

	t.Run("does not wait longer than max wait", func(t *testing.T) {
		t.Parallel()

		resetTime := time.Now().Add(time.Hour).Unix()
		callCount := 0

		resp, err := RetryOn429(context.Background(), time.Second, func() (*http.Response, error) {
			callCount++
			return rateLimited(strconv.FormatInt(resetTime, 10)), nil
		})

		require.NoError(t, err)
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.Equal(t, 1, callCount)
	})

	t.Run("respects context cancellation during wait", func(t *testing.T) {
		t.Parallel()

		resetTime := time.Now().Add(10 * time.Second).Unix()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		resp, err := RetryOn429(ctx, time.Minute, func() (*http.Response, error) {
			return rateLimited(strconv.FormatInt(resetTime, 10)), nil
		})

		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Nil(t, resp)
	})
}

func TestRateLimitRetryTransport(t *testing.T) {
	t.Parallel()

	t.Run("resends body on retry", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			require.Equal(t, "payload", string(body))

			if calls.Add(1) == 1 {
				w.Header().Set("Ratelimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &RateLimitRetryTransport{}}

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/users", strings.NewReader("payload"))
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.EqualValues(t, 2, calls.Load())
	})

	t.Run("skips configured paths", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Ratelimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := &http.Client{Transport: &RateLimitRetryTransport{SkipPaths: []string{"/streams"}}}

		resp, err := client.Get(srv.URL + "/streams")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		require.EqualValues(t, 1, calls.Load())
	})
}
