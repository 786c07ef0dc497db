package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"go.uber.org/zap/zaptest"

	"github.com/KonishchevDmitry/opds/pkg/url"
)

func Context(t *testing.T) context.Context {
	return logging.WithLogger(context.Background(), zaptest.NewLogger(t).Sugar())
}

// Server is a test HTTP server which serves a single static document.
type Server struct {
	*httptest.Server
	requests atomic.Int64
}

// Serve starts a server which responds to any request with the specified document. The server is stopped on test
// cleanup.
func Serve(t *testing.T, status int, contentType string, body string) *Server {
	server := &Server{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.requests.Add(1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func (s *Server) Endpoint(path string) *url.URL {
	return url.MustParse(s.Server.URL + path)
}

func (s *Server) Requests() int {
	return int(s.requests.Load())
}
