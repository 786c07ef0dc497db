package browser

import (
	"errors"
	"net/url"
	"time"

	"github.com/samber/mo"
)

type options struct {
	remote  mo.Option[string]
	headful bool
	profile mo.Option[string]
}

type Option func(o *options)

// Remote connects to an already running browser instead of starting a new one.
func Remote(hostPort string) Option {
	return func(o *options) {
		url := url.URL{
			Scheme: "ws",
			Host:   hostPort,
		}
		o.remote = mo.Some(url.String())
	}
}

func Headful() Option {
	return func(o *options) {
		o.headful = true
	}
}

// Profile makes the browser keep its data (cookies, cache) in the specified directory between runs, which helps to
// pass bot checks once.
func Profile(path string) Option {
	return func(o *options) {
		o.profile = mo.Some(path)
	}
}

func getOptions(opts []Option) (options, error) {
	var options options
	for _, opt := range opts {
		opt(&options)
	}

	if options.remote.IsPresent() && (options.headful || options.profile.IsPresent()) {
		return options, errors.New("remote browser can't be configured")
	}

	return options, nil
}

type queryOptions struct {
	sleep time.Duration
}

type QueryOption func(o *queryOptions)

// Sleep waits for the specified duration after page load to let its scripts finish.
func Sleep(duration time.Duration) QueryOption {
	return func(o *queryOptions) {
		o.sleep = duration
	}
}
