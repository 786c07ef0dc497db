package opds

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	require.EqualError(t, ErrDocumentNotFound, "Document is not found")
	require.EqualError(t, ErrDocumentNotValid, "Document is not valid")

	require.ErrorIs(t, fmt.Errorf("parse failed: %w", ErrDocumentNotValid), ErrDocumentNotValid)
	require.NotErrorIs(t, ErrDocumentNotFound, ErrDocumentNotValid)
	require.ErrorIs(t, &Error{kind: DocumentNotFound}, ErrDocumentNotFound)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		kind ErrorKind
		name string
	}{
		{err: ErrDocumentNotFound, kind: DocumentNotFound, name: "not_found"},
		{err: ErrDocumentNotValid, kind: DocumentNotValid, name: "not_valid"},
		{err: fmt.Errorf("wrapped: %w", ErrDocumentNotValid), kind: DocumentNotValid, name: "not_valid"},
		{err: errors.New("dial tcp: lookup example.org: no such host"), kind: TransportError, name: "transport_error"},
		{err: context.DeadlineExceeded, kind: TransportError, name: "transport_error"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.err.Error(), func(t *testing.T) {
			t.Parallel()

			kind := KindOf(testCase.err)
			require.Equal(t, testCase.kind, kind)
			require.Equal(t, testCase.name, kind.String())
		})
	}
}
