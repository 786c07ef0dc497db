package feed

import (
	"encoding/json"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"
)

func TestLink(t *testing.T) {
	t.Parallel()

	feed := New(OPDS2, "Catalog")
	feed.Links = []*Link{
		{Href: "https://example.org/", Rel: []string{"start"}},
		{Href: "https://example.org/feed", Rel: []string{"self", "first"}},
	}

	link, ok := feed.Link("first")
	require.True(t, ok)
	require.Equal(t, "https://example.org/feed", link.Href)

	_, ok = feed.Link("next")
	require.False(t, ok)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	feed := New(OPDS1, "Catalog")
	feed.Publications = []*Publication{{
		Metadata: PublicationMetadata{Title: "Book"},
		Links:    []*Link{{Href: "https://example.org/book.epub", Type: "application/epub+zip"}},
	}}

	data, err := json.MarshalIndent(feed, "", "\t")
	require.NoError(t, err)
	require.Equal(t, heredoc.Doc(`
		{
			"version": "opds1",
			"metadata": {
				"title": "Catalog"
			},
			"publications": [
				{
					"metadata": {
						"title": "Book"
					},
					"links": [
						{
							"href": "https://example.org/book.epub",
							"type": "application/epub+zip"
						}
					]
				}
			]
		}`,
	), string(data))
}
