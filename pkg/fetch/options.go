package fetch

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = time.Minute
	defaultUserAgent = "github.com/KonishchevDmitry/opds"
)

type Option func(o *options)

type options struct {
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	transport http.RoundTripper
}

func Timeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

func UserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// RateLimit limits the rate of requests issued by the transport. Requests wait for their turn.
func RateLimit(requestsPerSecond float64, burst int) Option {
	return func(o *options) {
		o.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))
	}
}

func RoundTripper(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}
