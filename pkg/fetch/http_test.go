package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/opds/internal/util"
	"github.com/KonishchevDmitry/opds/pkg/test/testutil"
	"github.com/KonishchevDmitry/opds/pkg/url"
)

func TestHTTPGet(t *testing.T) {
	t.Parallel()

	server := testutil.Serve(t, http.StatusOK, "application/atom+xml", "<feed/>")
	transport := NewHTTP()

	response, err := transport.Get(testutil.Context(t), server.Endpoint("/catalog"))
	require.NoError(t, err)

	require.Equal(t, server.Server.URL+"/catalog", response.URL)
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Equal(t, "application/atom+xml", response.ContentType)
	require.Equal(t, []byte("<feed/>"), response.Body)
}

func TestHTTPGetEmpty(t *testing.T) {
	t.Parallel()

	server := testutil.Serve(t, http.StatusOK, "", "")

	response, err := NewHTTP().Get(testutil.Context(t), server.Endpoint("/"))
	require.NoError(t, err)
	require.Empty(t, response.Body)
}

func TestHTTPGetHeaders(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
	}))
	defer server.Close()

	_, err := NewHTTP(UserAgent("opds-test")).Get(testutil.Context(t), url.MustParse(server.URL))
	require.NoError(t, err)

	header := <-headers
	require.Equal(t, "opds-test", header.Get("User-Agent"))
	require.Equal(t, acceptedContentTypes, header.Get("Accept"))
}

func TestHTTPGetStatusError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		status    int
		temporary bool
	}{
		{name: "not-found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "internal", status: http.StatusInternalServerError, temporary: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, temporary: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := testutil.Serve(t, testCase.status, "text/plain", "Some error")

			_, err := NewHTTP().Get(testutil.Context(t), server.Endpoint("/"))

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, testCase.status, statusErr.StatusCode)
			require.Equal(t, testCase.temporary, util.IsTemporaryError(err))
		})
	}
}

func TestHTTPGetConnectionRefused(t *testing.T) {
	t.Parallel()

	socket, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := socket.Addr().String()
	require.NoError(t, socket.Close())

	_, err = NewHTTP().Get(testutil.Context(t), url.MustParse("http://"+address+"/"))
	require.Error(t, err)

	var statusErr *StatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestHTTPGetTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewHTTP(Timeout(100*time.Millisecond)).Get(testutil.Context(t), url.MustParse(server.URL))
	require.Error(t, err)
	require.True(t, util.IsTemporaryError(err))
}

func TestHTTPGetCancelled(t *testing.T) {
	t.Parallel()

	server := testutil.Serve(t, http.StatusOK, "text/plain", "Some text")

	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()

	_, err := NewHTTP().Get(ctx, server.Endpoint("/"))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, server.Requests())
}

func TestHTTPRateLimit(t *testing.T) {
	t.Parallel()

	server := testutil.Serve(t, http.StatusOK, "text/plain", "Some text")
	transport := NewHTTP(RateLimit(10, 1))
	ctx := testutil.Context(t)

	startTime := time.Now()
	for range 3 {
		_, err := transport.Get(ctx, server.Endpoint("/"))
		require.NoError(t, err)
	}

	require.GreaterOrEqual(t, time.Since(startTime), 150*time.Millisecond)
	require.Equal(t, 3, server.Requests())
}

func TestHTTPDurationObserver(t *testing.T) {
	t.Parallel()

	server := testutil.Serve(t, http.StatusOK, "text/plain", "Some text")

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "fetch_duration"})
	ctx := WithContext(testutil.Context(t), histogram)

	_, err := NewHTTP().Get(ctx, server.Endpoint("/"))
	require.NoError(t, err)

	_, err = NewHTTP().Get(ctx, url.MustParse("http://[::1]:1/"))
	require.Error(t, err)

	var metric dto.Metric
	require.NoError(t, histogram.Write(&metric))
	require.EqualValues(t, 2, metric.GetHistogram().GetSampleCount())
}
