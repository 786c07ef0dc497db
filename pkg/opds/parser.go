// Package opds fetches OPDS catalogs and decodes them regardless of the catalog version returned by the server.
package opds

import (
	"context"
	"fmt"
	"net/url"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/samber/mo"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/fetch"
)

const correlationIDSize = 10

type Parser struct {
	transport fetch.Transport
	attempts  []Attempt
	metrics   mo.Option[*Metrics]
}

func New(opts ...Option) *Parser {
	options := options{
		sink: Discard,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.transport == nil {
		options.transport = fetch.NewHTTP()
	}

	attempts := options.attempts
	if attempts == nil {
		attempts = DefaultAttempts(options.sink)
	}

	return &Parser{
		transport: options.transport,
		attempts:  attempts,
		metrics:   mo.EmptyableToOption(options.metrics),
	}
}

// Parse starts fetching and decoding of the catalog in background. The returned promise is settled with either a feed
// or an error: the transport's error as is, ErrDocumentNotFound or ErrDocumentNotValid.
func (p *Parser) Parse(ctx context.Context, url *url.URL) *Promise {
	ctx = logging.WithLogger(ctx, logging.L(ctx).With("parse", correlationID()))
	if metrics, ok := p.metrics.Get(); ok {
		ctx = fetch.WithContext(ctx, metrics.fetchDuration)
	}

	promise := newPromise()

	go func() {
		var result mo.Result[*feed.Feed]

		defer func() {
			if err := recover(); err != nil {
				logging.L(ctx).Errorf("Parsing of %s has panicked: %v.", url, err)
				result = mo.Err[*feed.Feed](fmt.Errorf("the parser has panicked: %v", err))
			}

			if metrics, ok := p.metrics.Get(); ok {
				metrics.observe(result)
			}
			promise.settle(result)
		}()

		result = mo.TupleToResult(p.parse(ctx, url))
	}()

	return promise
}

// ParseURL is a blocking version of Parse.
func (p *Parser) ParseURL(ctx context.Context, url *url.URL) (*feed.Feed, error) {
	return p.Parse(ctx, url).Get()
}

func (p *Parser) parse(ctx context.Context, url *url.URL) (*feed.Feed, error) {
	logging.L(ctx).Debugf("Parsing %s...", url)
	startTime := time.Now()

	data, err := fetchDocument(ctx, p.transport, url)
	if err != nil {
		logging.L(ctx).Debugf("Failed to fetch %s: %s.", url, err)
		return nil, err
	}

	result, err := Dispatch(data, url, p.attempts...)
	if err != nil {
		logging.L(ctx).Debugf("Failed to decode %s: %s.", url, err)
		return nil, err
	}

	logging.L(ctx).Debugf("%s has been parsed as %s in %s.", url, result.Version, time.Since(startTime))
	return result, nil
}

// Parse parses the catalog using the default HTTP transport.
func Parse(ctx context.Context, url *url.URL) *Promise {
	return New().Parse(ctx, url)
}

func correlationID() string {
	id, err := gonanoid.New(correlationIDSize)
	if err != nil {
		return "-"
	}
	return id
}
