package fetch

import (
	"context"
	"fmt"
	"net/url"
)

// Transport performs a single GET request. Non-successful responses are reported as *StatusError.
type Transport interface {
	Get(ctx context.Context, url *url.URL) (*Response, error)
}

type Response struct {
	URL         string
	StatusCode  int
	StatusText  string
	ContentType string
	Body        []byte
}

type StatusError struct {
	URL        string
	StatusCode int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("the server returned an error: %s", e.StatusText)
}

func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
