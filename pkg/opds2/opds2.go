// Package opds2 decodes OPDS 2.0 catalogs (JSON).
package opds2

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/parse"
	"github.com/KonishchevDmitry/opds/pkg/url"
)

const ContentType = "application/opds+json"

var PossibleContentTypes = []string{ContentType, "application/json"}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return feedSchema().Resolve(nil)
})

// Decode parses a JSON catalog. Relative links are resolved against the URL the document was fetched from.
func Decode(data []byte, origin *url.URL) (*feed.Feed, error) {
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, err
	}

	schema, err := resolvedSchema()
	if err != nil {
		return nil, fmt.Errorf("invalid OPDS 2 schema: %w", err)
	}

	if err := schema.Validate(document); err != nil {
		return nil, fmt.Errorf("the document doesn't conform to OPDS 2 specification: %w", err)
	}

	var raw rawFeed
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	return raw.decode(origin)
}

type rawFeed struct {
	rawCollection
	Facets []*rawCollection `json:"facets"`
	Groups []*rawCollection `json:"groups"`
}

func (r *rawFeed) decode(origin *url.URL) (*feed.Feed, error) {
	result := feed.New(feed.OPDS2, "")
	result.Metadata = r.Metadata.decode()

	var err error
	if result.Links, err = decodeLinks(r.Links, origin); err != nil {
		return nil, err
	}
	if result.Navigation, err = decodeLinks(r.Navigation, origin); err != nil {
		return nil, err
	}
	if result.Publications, err = decodePublications(r.Publications, origin); err != nil {
		return nil, err
	}

	for _, rawFacet := range r.Facets {
		links, err := decodeLinks(rawFacet.Links, origin)
		if err != nil {
			return nil, err
		}
		result.Facets = append(result.Facets, &feed.Facet{
			Title: string(rawFacet.Metadata.Title),
			Links: links,
		})
	}

	for _, rawGroup := range r.Groups {
		group := &feed.Group{Title: string(rawGroup.Metadata.Title)}

		if group.Links, err = decodeLinks(rawGroup.Links, origin); err != nil {
			return nil, err
		}
		if group.Navigation, err = decodeLinks(rawGroup.Navigation, origin); err != nil {
			return nil, err
		}
		if group.Publications, err = decodePublications(rawGroup.Publications, origin); err != nil {
			return nil, err
		}

		result.Groups = append(result.Groups, group)
	}

	return result, nil
}

type rawCollection struct {
	Metadata     rawCollectionMetadata `json:"metadata"`
	Links        []*rawLink            `json:"links"`
	Navigation   []*rawLink            `json:"navigation"`
	Publications []*rawPublication     `json:"publications"`
}

type rawCollectionMetadata struct {
	Title         localizedString `json:"title"`
	Identifier    string          `json:"identifier"`
	Modified      string          `json:"modified"`
	NumberOfItems int             `json:"numberOfItems"`
	ItemsPerPage  int             `json:"itemsPerPage"`
	CurrentPage   int             `json:"currentPage"`
}

func (m *rawCollectionMetadata) decode() feed.Metadata {
	return feed.Metadata{
		Title:         parse.TrimText(string(m.Title)),
		Identifier:    m.Identifier,
		Modified:      parse.OptionalDate(m.Modified),
		NumberOfItems: m.NumberOfItems,
		ItemsPerPage:  m.ItemsPerPage,
		CurrentPage:   m.CurrentPage,
	}
}

type rawLink struct {
	Href      string     `json:"href"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Rel       stringList `json:"rel"`
	Templated bool       `json:"templated"`
}

func decodeLinks(rawLinks []*rawLink, origin *url.URL) ([]*feed.Link, error) {
	var links []*feed.Link

	for _, rawLink := range rawLinks {
		href, err := resolveHref(origin, rawLink.Href, rawLink.Templated)
		if err != nil {
			return nil, err
		}

		links = append(links, &feed.Link{
			Href:      href,
			Type:      rawLink.Type,
			Rel:       rawLink.Rel,
			Title:     rawLink.Title,
			Templated: rawLink.Templated,
		})
	}

	return links, nil
}

// Templates (RFC 6570) are not valid URLs until expanded, so only the part preceding the first expression is
// resolved.
func resolveHref(origin *url.URL, href string, templated bool) (string, error) {
	var template string
	if templated {
		if index := strings.IndexByte(href, '{'); index != -1 {
			href, template = href[:index], href[index:]
		}
	}

	resolved, err := url.Resolve(origin, href)
	if err != nil {
		return "", err
	}

	return resolved.String() + template, nil
}

type rawPublication struct {
	Metadata struct {
		Identifier  string          `json:"identifier"`
		Title       localizedString `json:"title"`
		Author      names           `json:"author"`
		Language    stringList      `json:"language"`
		Publisher   names           `json:"publisher"`
		Description string          `json:"description"`
		Subject     names           `json:"subject"`
		Published   string          `json:"published"`
		Modified    string          `json:"modified"`
	} `json:"metadata"`
	Links  []*rawLink `json:"links"`
	Images []*rawLink `json:"images"`
}

func decodePublications(rawPublications []*rawPublication, origin *url.URL) ([]*feed.Publication, error) {
	var publications []*feed.Publication

	for _, rawPublication := range rawPublications {
		metadata := &rawPublication.Metadata

		publication := &feed.Publication{
			Metadata: feed.PublicationMetadata{
				Identifier:  metadata.Identifier,
				Title:       parse.TrimText(string(metadata.Title)),
				Authors:     metadata.Author,
				Language:    metadata.Language,
				Description: parse.TrimText(metadata.Description),
				Subjects:    metadata.Subject,
				Published:   parse.OptionalDate(metadata.Published),
				Modified:    parse.OptionalDate(metadata.Modified),
			},
		}
		if len(metadata.Publisher) != 0 {
			publication.Metadata.Publisher = metadata.Publisher[0]
		}

		var err error
		if publication.Links, err = decodeLinks(rawPublication.Links, origin); err != nil {
			return nil, err
		}
		if publication.Images, err = decodeLinks(rawPublication.Images, origin); err != nil {
			return nil, err
		}

		publications = append(publications, publication)
	}

	return publications, nil
}
