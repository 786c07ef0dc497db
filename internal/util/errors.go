package util

import (
	"errors"
	"net"
)

type Temporary interface {
	Temporary() bool
}

// IsTemporaryError reports whether the error (or any error it wraps) is marked as temporary or is a network timeout.
func IsTemporaryError(err error) bool {
	for err := err; err != nil; err = errors.Unwrap(err) {
		if err, ok := err.(Temporary); ok && err.Temporary() {
			return true
		}
		if err, ok := err.(net.Error); ok && err.Timeout() {
			return true
		}
	}
	return false
}
