package fetch

import (
	"context"
	"net/url"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"

	"github.com/KonishchevDmitry/opds/pkg/browser"
)

// Browser fetches documents using the browser configured in the context by browser.Configure(). It's useful for
// catalogs protected from bots.
type Browser struct {
	options []browser.QueryOption
}

var _ Transport = Browser{}

func NewBrowser(options ...browser.QueryOption) Browser {
	return Browser{options: options}
}

func (t Browser) Get(ctx context.Context, url *url.URL) (*Response, error) {
	logging.L(ctx).Debugf("Fetching %s using the browser...", url)

	startTime := time.Now()
	response, err := browser.Get(ctx, url, t.options...)
	observeDuration(ctx, startTime)
	if err != nil {
		return nil, err
	}

	if statusCode := response.StatusCode; statusCode < 200 || statusCode >= 300 {
		return nil, &StatusError{
			URL:        response.URL,
			StatusCode: statusCode,
			StatusText: response.StatusText,
		}
	}

	return &Response{
		URL:         response.URL,
		StatusCode:  response.StatusCode,
		StatusText:  response.StatusText,
		ContentType: response.ContentType,
		Body:        []byte(response.Body),
	}, nil
}
