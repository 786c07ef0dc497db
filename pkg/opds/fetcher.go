package opds

import (
	"context"
	"net/url"

	logging "github.com/KonishchevDmitry/go-easy-logging"

	"github.com/KonishchevDmitry/opds/pkg/fetch"
)

// fetchDocument returns the document body. Transport errors are passed through unmodified.
func fetchDocument(ctx context.Context, transport fetch.Transport, url *url.URL) ([]byte, error) {
	response, err := transport.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if response == nil || len(response.Body) == 0 {
		logging.L(ctx).Debugf("%s returned an empty document.", url)
		return nil, ErrDocumentNotFound
	}

	return response.Body, nil
}
