package httputil

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloneRequest(t *testing.T) {
	t.Parallel()

	t.Run("clones request without body", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodGet, "http://example.com/test", nil)
		require.NoError(t, err)

		clone, err := CloneRequest(req)
		require.NoError(t, err)
		require.Equal(t, req.URL.String(), clone.URL.String())
	})

	t.Run("clones body through GetBody", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodPost, "http://example.com/test", strings.NewReader("body"))
		require.NoError(t, err)
		req.Header.Set("Client-Id", "abc")

		clone, err := CloneRequest(req)
		require.NoError(t, err)

		cloneBody, err := io.ReadAll(clone.Body)
		require.NoError(t, err)
		require.Equal(t, "body", string(cloneBody))

		origBody, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, "body", string(origBody))
		require.Equal(t, "abc", clone.Header.Get("Client-Id"))
	})

	t.Run("buffers body without GetBody", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodPost, "http://example.com/test", nil)
		require.NoError(t, err)
		req.Body = io.NopCloser(bytes.NewReader([]byte("buffered")))
		req.GetBody = nil

		clone, err := CloneRequest(req)
		require.NoError(t, err)
		require.NotNil(t, clone.GetBody)

		cloneBody, err := io.ReadAll(clone.Body)
		require.NoError(t, err)
		require.Equal(t, "buffered", string(cloneBody))

		origBody, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Equal(t, "buffered", string(origBody))
	})
}
