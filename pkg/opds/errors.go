package opds

import (
	"errors"
)

// ErrorKind is the kind of parse failure.
type ErrorKind int

const (
	// TransportError means that the document couldn't be fetched. The transport's error is returned as is.
	TransportError ErrorKind = iota
	// DocumentNotFound means that the server returned an empty document.
	DocumentNotFound
	// DocumentNotValid means that the document is neither an OPDS 1 nor an OPDS 2 catalog.
	DocumentNotValid
)

func (k ErrorKind) String() string {
	switch k {
	case TransportError:
		return "transport_error"
	case DocumentNotFound:
		return "not_found"
	case DocumentNotValid:
		return "not_valid"
	default:
		return "unknown"
	}
}

// Error is a document-level parse failure. Errors are comparable, so errors.Is() works with the predefined values.
type Error struct {
	kind ErrorKind
}

var (
	ErrDocumentNotFound = &Error{kind: DocumentNotFound}
	ErrDocumentNotValid = &Error{kind: DocumentNotValid}
)

func (e *Error) Kind() ErrorKind {
	return e.kind
}

func (e *Error) Error() string {
	switch e.kind {
	case DocumentNotFound:
		return "Document is not found"
	case DocumentNotValid:
		return "Document is not valid"
	default:
		return e.kind.String()
	}
}

func (e *Error) Is(target error) bool {
	var err *Error
	return errors.As(target, &err) && err.kind == e.kind
}

// KindOf classifies an error returned by the parser. Any error which is not a document error came from the transport.
func KindOf(err error) ErrorKind {
	var parseErr *Error
	if errors.As(err, &parseErr) {
		return parseErr.kind
	}
	return TransportError
}
