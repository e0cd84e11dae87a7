package httputil

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type RoundTripperFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// LoggingRoundTrip sets the User-Agent header and logs every request made through it.
type LoggingRoundTrip struct {
	rt      http.RoundTripper
	logger  zerolog.Logger
	version string
	trace   bool
}

// NewLoggingRoundTrip wraps rt. With trace enabled the request headers are logged
// at trace level; the Authorization header is always redacted.
func NewLoggingRoundTrip(rt http.RoundTripper, logger zerolog.Logger, userAgentVersion string, trace bool) *LoggingRoundTrip {
	return &LoggingRoundTrip{
		rt:      rt,
		logger:  logger,
		version: userAgentVersion,
		trace:   trace,
	}
}

func (t *LoggingRoundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := t.rt

	if rt == nil {
		rt = http.DefaultTransport
	}

	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", fmt.Sprintf("chatbridge/%s", t.version))

	if t.trace {
		headers := req.Header.Clone()
		if headers.Get("Authorization") != "" {
			headers.Set("Authorization", "**REDACTED TOKEN**")
		}
		t.logger.Trace().Str("method", req.Method).Str("url", req.URL.String()).Any("header", headers).Msg("sending request")
	}

	now := time.Now()
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.logger.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("error while making request")
		return nil, err
	}

	t.logger.Info().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Dur("took", time.Since(now)).
		Int("status", resp.StatusCode).Msg("request made")

	return resp, nil
}
