package opds2

import (
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/url"
)

var origin = url.MustParse("https://example.org/opds2/catalog.json")

func TestDecode(t *testing.T) {
	t.Parallel()

	result, err := Decode([]byte(heredoc.Doc(`
		{
		  "metadata": {
		    "title": {"fr": "Catalogue", "en": "Example listing publications"},
		    "modified": "2016-09-22T14:31:02Z",
		    "numberOfItems": 5,
		    "itemsPerPage": 1,
		    "currentPage": 2
		  },
		  "links": [
		    {"rel": "self", "href": "/opds2/publications.json", "type": "application/opds+json"},
		    {"rel": ["search", "alternate"], "href": "search{?query}", "type": "application/opds+json", "templated": true}
		  ],
		  "facets": [
		    {
		      "metadata": {"title": "Language"},
		      "links": [{"href": "/fr", "type": "application/opds+json", "title": "French"}]
		    }
		  ],
		  "publications": [
		    {
		      "metadata": {
		        "@type": "http://schema.org/Book",
		        "title": "Moby-Dick",
		        "author": [{"name": "Herman Melville", "sortAs": "Melville, Herman"}, "Anonymous"],
		        "identifier": "urn:isbn:978031600000X",
		        "language": "en",
		        "publisher": {"name": "Harper & Brothers"},
		        "subject": [{"name": "Whaling", "code": "FIC"}],
		        "published": "1851",
		        "modified": "2015-09-29T17:00:00Z",
		        "description": "  The sea story.  "
		      },
		      "links": [
		        {"rel": "self", "href": "moby-dick.json", "type": "application/opds-publication+json"},
		        {"rel": "http://opds-spec.org/acquisition/open-access", "href": "http://example.com/moby-dick.epub", "type": "application/epub+zip"}
		      ],
		      "images": [
		        {"href": "covers/moby-dick.jpg", "type": "image/jpeg"}
		      ]
		    }
		  ],
		  "groups": [
		    {
		      "metadata": {"title": "Genres"},
		      "navigation": [{"href": "/sci-fi", "title": "Science Fiction", "type": "application/opds+json"}]
		    }
		  ]
		}
	`)), origin)
	require.NoError(t, err)

	require.Equal(t, feed.OPDS2, result.Version)

	metadata := result.Metadata
	require.True(t, time.Date(2016, 9, 22, 14, 31, 2, 0, time.UTC).Equal(metadata.Modified))
	metadata.Modified = time.Time{}
	require.Equal(t, feed.Metadata{
		Title:         "Example listing publications",
		NumberOfItems: 5,
		ItemsPerPage:  1,
		CurrentPage:   2,
	}, metadata)

	require.Equal(t, []*feed.Link{{
		Href: "https://example.org/opds2/publications.json",
		Type: ContentType,
		Rel:  []string{"self"},
	}, {
		Href:      "https://example.org/opds2/search{?query}",
		Type:      ContentType,
		Rel:       []string{"search", "alternate"},
		Templated: true,
	}}, result.Links)

	require.Equal(t, []*feed.Facet{{
		Title: "Language",
		Links: []*feed.Link{{Href: "https://example.org/fr", Type: ContentType, Title: "French"}},
	}}, result.Facets)

	require.Equal(t, []*feed.Group{{
		Title: "Genres",
		Navigation: []*feed.Link{{
			Href:  "https://example.org/sci-fi",
			Type:  ContentType,
			Title: "Science Fiction",
		}},
	}}, result.Groups)

	require.Len(t, result.Publications, 1)
	publication := result.Publications[0]

	publicationMetadata := publication.Metadata
	require.Equal(t, 1851, publicationMetadata.Published.Year())
	require.Equal(t, 2015, publicationMetadata.Modified.Year())
	publicationMetadata.Published, publicationMetadata.Modified = time.Time{}, time.Time{}

	require.Equal(t, feed.PublicationMetadata{
		Identifier:  "urn:isbn:978031600000X",
		Title:       "Moby-Dick",
		Authors:     []string{"Herman Melville", "Anonymous"},
		Language:    []string{"en"},
		Publisher:   "Harper & Brothers",
		Description: "The sea story.",
		Subjects:    []string{"Whaling"},
	}, publicationMetadata)

	require.Equal(t, []*feed.Link{{
		Href: "https://example.org/opds2/covers/moby-dick.jpg",
		Type: "image/jpeg",
	}}, publication.Images)

	acquisition, ok := publication.Link("http://opds-spec.org/acquisition/open-access")
	require.True(t, ok)
	require.Equal(t, "http://example.com/moby-dick.epub", acquisition.Href)
}

func TestDecodeInvalid(t *testing.T) {
	t.Parallel()

	for name, data := range map[string]string{
		"empty":          "",
		"xml":            `<feed xmlns="http://www.w3.org/2005/Atom"><title>Catalog</title></feed>`,
		"array":          `[{"metadata": {"title": "Catalog"}, "links": []}]`,
		"no-metadata":    `{"links": []}`,
		"no-title":       `{"metadata": {}, "links": []}`,
		"no-links":       `{"metadata": {"title": "Catalog"}}`,
		"link-href":      `{"metadata": {"title": "Catalog"}, "links": [{"rel": "self"}]}`,
		"publication":    `{"metadata": {"title": "Catalog"}, "links": [], "publications": [{"metadata": {}}]}`,
		"json-feed":      `{"version": "https://jsonfeed.org/version/1.1", "title": "Blog", "items": []}`,
		"negative-items": `{"metadata": {"title": "Catalog", "numberOfItems": -1}, "links": []}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(data), origin)
			require.Error(t, err)
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	for data, expected := range map[string]names{
		`"Jules Verne"`:                               {"Jules Verne"},
		`{"name": {"fr": "Jules Verne"}}`:             {"Jules Verne"},
		`[{"identifier": "x", "name": "A"}, "B", ""]`: {"A", "B"},
		`null`:                                        nil,
	} {
		t.Run(data, func(t *testing.T) {
			var result names
			require.NoError(t, result.UnmarshalJSON([]byte(data)))
			require.Equal(t, expected, result)
		})
	}
}
