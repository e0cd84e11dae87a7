package httputil

import (
	"bytes"
	"io"
	"net/http"
)

// CloneRequest returns a copy of req whose body can be sent again.
// Bodies without GetBody are buffered once and restored on the original request.
func CloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())

	switch {
	case req.Body == nil || req.Body == http.NoBody:
		return clone, nil
	case req.GetBody != nil:
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
		return clone, nil
	}

	buffered, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	_ = req.Body.Close()

	req.Body = io.NopCloser(bytes.NewReader(buffered))
	clone.Body = io.NopCloser(bytes.NewReader(buffered))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buffered)), nil
	}

	return clone, nil
}
