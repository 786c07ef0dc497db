package opds

import (
	"context"
	"net/url"
	"sync/atomic"

	"github.com/MakeNowJust/heredoc"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/fetch"
)

var atomCatalog = heredoc.Doc(`
	<?xml version="1.0" encoding="UTF-8"?>
	<feed xmlns="http://www.w3.org/2005/Atom">
	    <id>urn:uuid:2853dacf-ed79-42f5-8e8a-a7bb3d1ae6a2</id>
	    <title>Catalog Root</title>
	    <updated>2010-01-10T10:03:10Z</updated>
	    <link rel="self" href="/feed" type="application/atom+xml;profile=opds-catalog;kind=navigation"/>
	    <entry>
	        <title>Popular Publications</title>
	        <id>urn:uuid:d49e8018-a0e0-499e-9423-7c175fa0c56e</id>
	        <updated>2010-01-10T10:01:01Z</updated>
	        <link rel="http://opds-spec.org/sort/popular" href="/opds-catalogs/popular.xml"
	              type="application/atom+xml;profile=opds-catalog;kind=acquisition"/>
	    </entry>
	</feed>
`)

var jsonCatalog = heredoc.Doc(`
	{
	  "metadata": {"title": "Example listing publications"},
	  "links": [
	    {"rel": "self", "href": "/feed", "type": "application/opds+json"}
	  ],
	  "publications": [
	    {
	      "metadata": {"title": "Moby-Dick", "author": "Herman Melville"},
	      "links": [
	        {"rel": "http://opds-spec.org/acquisition", "href": "/moby-dick.epub", "type": "application/epub+zip"}
	      ]
	    }
	  ]
	}
`)

const invalidJSONCatalog = `{"title": "Not a catalog", "entries": []}`

var catalogURL = &url.URL{Scheme: "https", Host: "example.org", Path: "/feed"}

type fakeTransport struct {
	response *fetch.Response
	err      error
	calls    atomic.Int64
}

func (t *fakeTransport) Get(ctx context.Context, url *url.URL) (*fetch.Response, error) {
	t.calls.Add(1)
	if t.err != nil {
		return nil, t.err
	}
	return t.response, nil
}

func serveBody(body string) *fakeTransport {
	return &fakeTransport{response: &fetch.Response{
		URL:        catalogURL.String(),
		StatusCode: 200,
		StatusText: "200 OK",
		Body:       []byte(body),
	}}
}

type countingDecoder struct {
	decoder Decoder
	calls   atomic.Int64
}

func (d *countingDecoder) Decode(data []byte, origin *url.URL) (*feed.Feed, error) {
	d.calls.Add(1)
	return d.decoder.Decode(data, origin)
}

type recordingSink struct {
	attempts []string
	errors   []error
}

func (s *recordingSink) sink(attempt string, err error) {
	s.attempts = append(s.attempts, attempt)
	s.errors = append(s.errors, err)
}
