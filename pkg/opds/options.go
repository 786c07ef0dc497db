package opds

import (
	"github.com/KonishchevDmitry/opds/pkg/fetch"
)

type options struct {
	transport fetch.Transport
	sink      ErrorSink
	metrics   *Metrics
	attempts  []Attempt
}

type Option func(o *options)

// WithTransport sets the transport used to fetch catalogs. fetch.NewHTTP() is used by default.
func WithTransport(transport fetch.Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithErrorSink sets a receiver of decoder errors, which are discarded by default.
func WithErrorSink(sink ErrorSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithDecoders replaces the default OPDS 1 then OPDS 2 fallback chain.
func WithDecoders(attempts ...Attempt) Option {
	return func(o *options) {
		o.attempts = attempts
	}
}
