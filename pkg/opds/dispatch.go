package opds

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/opds1"
	"github.com/KonishchevDmitry/opds/pkg/opds2"
)

// Decoder builds a feed from a raw document. Relative links must be resolved against origin.
type Decoder interface {
	Decode(data []byte, origin *url.URL) (*feed.Feed, error)
}

type DecoderFunc func(data []byte, origin *url.URL) (*feed.Feed, error)

func (f DecoderFunc) Decode(data []byte, origin *url.URL) (*feed.Feed, error) {
	return f(data, origin)
}

// ErrorSink receives the errors of failed decode attempts.
type ErrorSink func(attempt string, err error)

// Discard drops decode errors.
func Discard(string, error) {}

// Attempt is a single step of the fallback chain.
type Attempt struct {
	Name    string
	Decoder Decoder
	Sink    ErrorSink
}

var errNoFeed = errors.New("the decoder returned no feed")

// DefaultAttempts returns the OPDS 1 then OPDS 2 chain.
func DefaultAttempts(sink ErrorSink) []Attempt {
	return []Attempt{{
		Name:    string(feed.OPDS1),
		Decoder: DecoderFunc(opds1.Decode),
		Sink:    sink,
	}, {
		Name:    string(feed.OPDS2),
		Decoder: DecoderFunc(opds2.Decode),
		Sink:    sink,
	}}
}

// Dispatch tries the decoders in order and returns the first decoded feed. If all of them fail, ErrDocumentNotValid is
// returned and the decoder errors are only visible to the sinks.
func Dispatch(data []byte, origin *url.URL, attempts ...Attempt) (*feed.Feed, error) {
	for _, attempt := range attempts {
		result, err := decode(attempt.Decoder, data, origin)
		if err == nil {
			return result, nil
		}

		if sink := attempt.Sink; sink != nil {
			sink(attempt.Name, err)
		}
	}

	return nil, ErrDocumentNotValid
}

func decode(decoder Decoder, data []byte, origin *url.URL) (_ *feed.Feed, retErr error) {
	defer func() {
		if err := recover(); err != nil {
			retErr = fmt.Errorf("the decoder has panicked: %v", err)
		}
	}()

	result, err := decoder.Decode(data, origin)
	if err != nil {
		return nil, err
	} else if result == nil {
		return nil, errNoFeed
	}

	return result, nil
}
