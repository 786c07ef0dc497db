package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"golang.org/x/sync/errgroup"

	"github.com/KonishchevDmitry/opds/pkg/browser"
	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/fetch"
	"github.com/KonishchevDmitry/opds/pkg/opds"
	"github.com/KonishchevDmitry/opds/pkg/server"
	opdsurl "github.com/KonishchevDmitry/opds/pkg/url"
)

type TransportFlags struct {
	Browser   bool          `help:"Fetch catalogs using headless Chrome." env:"OPDS_BROWSER"`
	Timeout   time.Duration `help:"Catalog fetch timeout." default:"1m" env:"OPDS_TIMEOUT"`
	RateLimit float64       `help:"Maximum number of requests per second (0 means unlimited)." default:"0" env:"OPDS_RATE_LIMIT"`

	BrowserRemote  string        `name:"browser-remote" help:"Connect to a running browser at host:port instead of starting one." env:"OPDS_BROWSER_REMOTE"`
	BrowserHeadful bool          `name:"browser-headful" help:"Show the browser window."`
	BrowserProfile string        `name:"browser-profile" help:"Directory to keep the browser profile in between runs." type:"path" env:"OPDS_BROWSER_PROFILE"`
	BrowserSleep   time.Duration `name:"browser-sleep" help:"Time to let page scripts run after the page is loaded." env:"OPDS_BROWSER_SLEEP"`
}

func (f *TransportFlags) browserOptions() ([]browser.Option, []browser.QueryOption) {
	var options []browser.Option
	if f.BrowserRemote != "" {
		options = append(options, browser.Remote(f.BrowserRemote))
	}
	if f.BrowserHeadful {
		options = append(options, browser.Headful())
	}
	if f.BrowserProfile != "" {
		options = append(options, browser.Profile(f.BrowserProfile))
	}

	var queryOptions []browser.QueryOption
	if f.BrowserSleep != 0 {
		queryOptions = append(queryOptions, browser.Sleep(f.BrowserSleep))
	}

	return options, queryOptions
}

func (f *TransportFlags) transport(ctx context.Context) (context.Context, fetch.Transport, func(), error) {
	if f.Browser {
		options, queryOptions := f.browserOptions()

		ctx, stop, err := browser.Configure(ctx, options...)
		if err != nil {
			return ctx, nil, nil, fmt.Errorf("failed to start the browser: %w", err)
		}
		return ctx, fetch.NewBrowser(queryOptions...), stop, nil
	}

	options := []fetch.Option{fetch.Timeout(f.Timeout)}
	if f.RateLimit > 0 {
		options = append(options, fetch.RateLimit(f.RateLimit, 1))
	}

	return ctx, fetch.NewHTTP(options...), func() {}, nil
}

type ParseCmd struct {
	TransportFlags `embed:""`

	Concurrency   int      `help:"Maximum number of catalogs parsed concurrently." default:"4" env:"OPDS_CONCURRENCY"`
	DecoderErrors bool     `name:"decoder-errors" help:"Log errors of failed decode attempts."`
	URLs          []string `arg:"" name:"url" help:"Catalog URLs."`
}

func (c *ParseCmd) Run(ctx context.Context, globals *Globals) error {
	urls := make([]*url.URL, 0, len(c.URLs))
	for _, value := range c.URLs {
		catalogURL, err := opdsurl.ParseAbsolute(value)
		if err != nil {
			return err
		}
		urls = append(urls, catalogURL)
	}

	ctx, transport, stop, err := c.transport(ctx)
	if err != nil {
		return err
	}
	defer stop()

	options := []opds.Option{opds.WithTransport(transport)}
	if c.DecoderErrors {
		options = append(options, opds.WithErrorSink(func(attempt string, err error) {
			logging.L(ctx).Infof("%s decoder has failed: %s.", attempt, err)
		}))
	}
	parser := opds.New(options...)

	feeds := make([]*feed.Feed, len(urls))
	errs := make([]error, len(urls))

	var group errgroup.Group
	group.SetLimit(max(c.Concurrency, 1))

	for index, catalogURL := range urls {
		group.Go(func() error {
			ctx := ctx
			if c.Browser {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.Timeout)
				defer cancel()
			}

			feeds[index], errs[index] = parser.ParseURL(ctx, catalogURL)
			return nil
		})
	}
	_ = group.Wait()

	encoder := json.NewEncoder(globals.Output)
	encoder.SetIndent("", "  ")

	var failed int
	for index, catalogURL := range urls {
		if err := errs[index]; err != nil {
			logging.L(ctx).Errorf("Failed to parse %s (%s): %s.", catalogURL, opds.KindOf(err), err)
			failed++
			continue
		}

		if err := encoder.Encode(feeds[index]); err != nil {
			return err
		}
	}

	if failed != 0 {
		return fmt.Errorf("failed to parse %d of %d catalogs", failed, len(urls))
	}

	return nil
}

type ServeCmd struct {
	TransportFlags `embed:""`

	Listen        string `help:"Address to listen on." default:"localhost:8080" env:"OPDS_LISTEN"`
	MetricsListen string `name:"metrics-listen" help:"Address to serve metrics on." default:"localhost:9090" env:"OPDS_METRICS_LISTEN"`
}

func (c *ServeCmd) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ctx, transport, stop, err := c.transport(ctx)
	if err != nil {
		return err
	}
	defer stop()

	return server.New(opds.WithTransport(transport)).Serve(ctx, c.Listen, c.MetricsListen)
}
