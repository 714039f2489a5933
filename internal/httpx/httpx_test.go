package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceoracle/internal/httpx"
)

func TestClientDo_DefaultHeaders(t *testing.T) {
	t.Parallel()

	// Arrange: a server echoing the headers it cares about.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "priceoracle/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "preset", r.Header.Get("X-Caller"))
		assert.Equal(t, "bar", r.Header.Get("X-Foo"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := httpx.New(2 * time.Second)
	client.Headers = map[string]string{"X-Foo": "bar", "X-Caller": "default"}

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Caller", "preset")

	// Act
	res, err := client.Do(req)

	// Assert
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestClient_SatisfiesHTTPClient(t *testing.T) {
	t.Parallel()

	var _ httpx.HTTPClient = httpx.New(time.Second)
	var _ httpx.HTTPClient = http.DefaultClient
}
