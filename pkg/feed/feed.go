// Package feed contains the format-independent representation of an OPDS catalog.
package feed

import (
	"fmt"
	"slices"
	"time"
)

type Version string

const (
	OPDS1 Version = "opds1"
	OPDS2 Version = "opds2"
)

type Feed struct {
	Version      Version        `json:"version"`
	Metadata     Metadata       `json:"metadata"`
	Links        []*Link        `json:"links,omitempty"`
	Facets       []*Facet       `json:"facets,omitempty"`
	Groups       []*Group       `json:"groups,omitempty"`
	Navigation   []*Link        `json:"navigation,omitempty"`
	Publications []*Publication `json:"publications,omitempty"`
}

func New(version Version, title string) *Feed {
	return &Feed{
		Version:  version,
		Metadata: Metadata{Title: title},
	}
}

// Link returns the first link with the specified relation.
func (f *Feed) Link(rel string) (*Link, bool) {
	return findLink(f.Links, rel)
}

func (f *Feed) String() string {
	if f == nil {
		return fmt.Sprintf("%#v", f)
	}
	return fmt.Sprintf(
		"%s feed %q (%d links, %d navigation links, %d publications, %d groups)",
		f.Version, f.Metadata.Title, len(f.Links), len(f.Navigation), len(f.Publications), len(f.Groups))
}

type Metadata struct {
	Title         string    `json:"title"`
	Identifier    string    `json:"identifier,omitempty"`
	Modified      time.Time `json:"modified,omitzero"`
	NumberOfItems int       `json:"numberOfItems,omitempty"`
	ItemsPerPage  int       `json:"itemsPerPage,omitempty"`
	CurrentPage   int       `json:"currentPage,omitempty"`
}

type Link struct {
	Href      string   `json:"href"`
	Type      string   `json:"type,omitempty"`
	Rel       []string `json:"rel,omitempty"`
	Title     string   `json:"title,omitempty"`
	Templated bool     `json:"templated,omitempty"`
}

func (l *Link) HasRel(rel string) bool {
	return slices.Contains(l.Rel, rel)
}

type Facet struct {
	Title string  `json:"title"`
	Links []*Link `json:"links"`
}

type Group struct {
	Title        string         `json:"title"`
	Links        []*Link        `json:"links,omitempty"`
	Navigation   []*Link        `json:"navigation,omitempty"`
	Publications []*Publication `json:"publications,omitempty"`
}

type Publication struct {
	Metadata PublicationMetadata `json:"metadata"`
	Links    []*Link             `json:"links"`
	Images   []*Link             `json:"images,omitempty"`

	// HTML content with absolute links
	Content string `json:"content,omitempty"`
}

func (p *Publication) Link(rel string) (*Link, bool) {
	return findLink(p.Links, rel)
}

type PublicationMetadata struct {
	Identifier  string    `json:"identifier,omitempty"`
	Title       string    `json:"title"`
	Authors     []string  `json:"authors,omitempty"`
	Language    []string  `json:"language,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	Description string    `json:"description,omitempty"`
	Subjects    []string  `json:"subjects,omitempty"`
	Published   time.Time `json:"published,omitzero"`
	Modified    time.Time `json:"modified,omitzero"`
}

func findLink(links []*Link, rel string) (*Link, bool) {
	for _, link := range links {
		if link.HasRel(rel) {
			return link, true
		}
	}
	return nil, false
}
