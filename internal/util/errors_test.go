package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type temporaryError struct {
	temporary bool
}

func (e temporaryError) Error() string {
	return "some error"
}

func (e temporaryError) Temporary() bool {
	return e.temporary
}

func TestIsTemporaryError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		err       error
		temporary bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("some error")},
		{name: "temporary", err: temporaryError{temporary: true}, temporary: true},
		{name: "permanent", err: temporaryError{temporary: false}},
		{name: "wrapped", err: fmt.Errorf("request failed: %w", temporaryError{temporary: true}), temporary: true},
		{name: "timeout", err: &net.OpError{Op: "dial", Err: context.DeadlineExceeded}, temporary: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, testCase.temporary, IsTemporaryError(testCase.err))
		})
	}
}
