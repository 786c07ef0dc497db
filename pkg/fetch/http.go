package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

var acceptedContentTypes = strings.Join([]string{
	"application/atom+xml;profile=opds-catalog",
	"application/opds+json",
	"application/atom+xml;q=0.9",
	"application/json;q=0.9",
	"application/xml;q=0.8",
	"text/xml;q=0.8",
	"*/*;q=0.1",
}, ", ")

type HTTP struct {
	client *resty.Client
}

var _ Transport = &HTTP{}

func NewHTTP(opts ...Option) *HTTP {
	options := options{
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&options)
	}

	transport := options.transport
	if options.limiter != nil {
		transport = &rateLimitedTransport{
			transport: transport,
			limiter:   options.limiter,
		}
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(options.timeout).
		SetHeader("User-Agent", options.userAgent).
		SetHeader("Accept", acceptedContentTypes)

	return &HTTP{client: client}
}

// Get returns transport errors as is, so callers are able to inspect them.
func (t *HTTP) Get(ctx context.Context, url *url.URL) (*Response, error) {
	logging.L(ctx).Debugf("Fetching %s...", url)

	startTime := time.Now()
	response, err := t.client.R().SetContext(ctx).Get(url.String())
	observeDuration(ctx, startTime)
	if err != nil {
		return nil, err
	}

	if !response.IsSuccess() {
		return nil, &StatusError{
			URL:        url.String(),
			StatusCode: response.StatusCode(),
			StatusText: response.Status(),
		}
	}

	logging.L(ctx).Debugf("Got %d bytes of %q from %s.", response.Size(), response.Header().Get("Content-Type"), url)

	return &Response{
		URL:         response.RawResponse.Request.URL.String(),
		StatusCode:  response.StatusCode(),
		StatusText:  response.Status(),
		ContentType: response.Header().Get("Content-Type"),
		Body:        response.Body(),
	}, nil
}

type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

var _ http.RoundTripper = &rateLimitedTransport{}

func (t *rateLimitedTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(request.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(request)
}
