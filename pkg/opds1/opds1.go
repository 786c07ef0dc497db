// Package opds1 decodes OPDS 1.x catalogs (Atom feeds).
package opds1

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/KonishchevDmitry/opds/pkg/feed"
	"github.com/KonishchevDmitry/opds/pkg/parse"
	"github.com/KonishchevDmitry/opds/pkg/query"
	"github.com/KonishchevDmitry/opds/pkg/url"
)

const (
	ContentType            = "application/atom+xml"
	NavigationContentType  = ContentType + ";profile=opds-catalog;kind=navigation"
	AcquisitionContentType = ContentType + ";profile=opds-catalog;kind=acquisition"
)

var PossibleContentTypes = []string{ContentType, "application/xml", "text/xml"}

const (
	relAcquisition = "http://opds-spec.org/acquisition"
	relImage       = "http://opds-spec.org/image"
	relThumbnail   = "http://opds-spec.org/image/thumbnail"
	relFacet       = "http://opds-spec.org/facet"
)

// Decode parses an Atom-based catalog. Relative links are resolved against the URL the document was fetched from.
func Decode(data []byte, origin *url.URL) (*feed.Feed, error) {
	parser := atom.Parser{}

	atomFeed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if atomFeed.Title == "" && atomFeed.ID == "" && len(atomFeed.Entries) == 0 {
		return nil, errors.New("the document doesn't conform to OPDS 1 specification")
	}

	result := feed.New(feed.OPDS1, parse.TrimText(atomFeed.Title))
	result.Metadata.Identifier = atomFeed.ID
	if atomFeed.UpdatedParsed != nil {
		result.Metadata.Modified = *atomFeed.UpdatedParsed
	}

	if err := decodePagination(&result.Metadata, atomFeed.Extensions); err != nil {
		return nil, err
	}

	var facetLinks []*feed.Link
	for _, atomLink := range atomFeed.Links {
		link, err := decodeLink(atomLink, origin)
		if err != nil {
			return nil, err
		}

		if link.HasRel(relFacet) {
			facetLinks = append(facetLinks, link)
		} else {
			result.Links = append(result.Links, link)
		}
	}

	// Atom links don't preserve opds:facetGroup attribute, so all facets end up in a single group
	if len(facetLinks) != 0 {
		result.Facets = []*feed.Facet{{Title: "Facets", Links: facetLinks}}
	}

	for _, entry := range atomFeed.Entries {
		if isAcquisitionEntry(entry) {
			publication, err := decodePublication(entry, origin)
			if err != nil {
				return nil, err
			}
			result.Publications = append(result.Publications, publication)
		} else if link, ok, err := decodeNavigationEntry(entry, origin); err != nil {
			return nil, err
		} else if ok {
			result.Navigation = append(result.Navigation, link)
		}
	}

	return result, nil
}

func isAcquisitionEntry(entry *atom.Entry) bool {
	for _, link := range entry.Links {
		if strings.HasPrefix(link.Rel, relAcquisition) {
			return true
		}
	}
	return false
}

func decodeNavigationEntry(entry *atom.Entry, origin *url.URL) (*feed.Link, bool, error) {
	for _, atomLink := range entry.Links {
		if atomLink.Href == "" {
			continue
		}

		link, err := decodeLink(atomLink, origin)
		if err != nil {
			return nil, false, err
		}
		link.Title = parse.TrimText(entry.Title)

		return link, true, nil
	}

	return nil, false, nil
}

func decodePublication(entry *atom.Entry, origin *url.URL) (*feed.Publication, error) {
	publication := &feed.Publication{
		Metadata: feed.PublicationMetadata{
			Identifier: entry.ID,
			Title:      parse.TrimText(entry.Title),
			Publisher:  extensionValue(entry.Extensions, "publisher"),
		},
	}
	metadata := &publication.Metadata

	for _, author := range entry.Authors {
		if name := parse.TrimText(author.Name); name != "" {
			metadata.Authors = append(metadata.Authors, name)
		}
	}

	for _, category := range entry.Categories {
		subject := category.Label
		if subject == "" {
			subject = category.Term
		}
		if subject = parse.TrimText(subject); subject != "" {
			metadata.Subjects = append(metadata.Subjects, subject)
		}
	}

	if language := extensionValue(entry.Extensions, "language"); language != "" {
		metadata.Language = []string{language}
	}

	if entry.PublishedParsed != nil {
		metadata.Published = *entry.PublishedParsed
	} else {
		metadata.Published = parse.OptionalDate(extensionValue(entry.Extensions, "issued"))
	}
	if entry.UpdatedParsed != nil {
		metadata.Modified = *entry.UpdatedParsed
	}

	if entry.Summary != "" {
		description, err := query.PlainText(entry.Summary)
		if err != nil {
			return nil, err
		}
		metadata.Description = description
	}

	if content := entry.Content; content != nil && content.Value != "" {
		switch content.Type {
		case "html", "xhtml":
			html, err := query.Content(content.Value, origin)
			if err != nil {
				return nil, err
			}
			publication.Content = html
		default:
			if metadata.Description == "" {
				metadata.Description = parse.TrimText(content.Value)
			}
		}
	}

	for _, atomLink := range entry.Links {
		link, err := decodeLink(atomLink, origin)
		if err != nil {
			return nil, err
		}

		if link.HasRel(relImage) || link.HasRel(relThumbnail) {
			publication.Images = append(publication.Images, link)
		} else {
			publication.Links = append(publication.Links, link)
		}
	}

	return publication, nil
}

func decodeLink(atomLink *atom.Link, origin *url.URL) (*feed.Link, error) {
	href, err := url.Resolve(origin, atomLink.Href)
	if err != nil {
		return nil, err
	}

	link := &feed.Link{
		Href:  href.String(),
		Type:  atomLink.Type,
		Title: atomLink.Title,
	}
	if atomLink.Rel != "" {
		link.Rel = []string{atomLink.Rel}
	}

	return link, nil
}

func decodePagination(metadata *feed.Metadata, extensions ext.Extensions) error {
	for name, target := range map[string]*int{
		"totalResults": &metadata.NumberOfItems,
		"itemsPerPage": &metadata.ItemsPerPage,
	} {
		value := extensionValue(extensions, name)
		if value == "" {
			continue
		}

		number, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %q", name, value)
		}
		*target = number
	}

	if metadata.ItemsPerPage > 0 {
		if value := extensionValue(extensions, "startIndex"); value != "" {
			startIndex, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid startIndex value: %q", value)
			}
			metadata.CurrentPage = (max(startIndex, 1)-1)/metadata.ItemsPerPage + 1
		}
	}

	return nil
}

// Namespace prefixes of extension elements depend on the document, so look the element up by its local name.
func extensionValue(extensions ext.Extensions, name string) string {
	for _, elements := range extensions {
		for _, element := range elements[name] {
			if value := strings.TrimSpace(element.Value); value != "" {
				return value
			}
		}
	}
	return ""
}
