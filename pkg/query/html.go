package query

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/KonishchevDmitry/opds/pkg/url"
)

// Content sanitizes an HTML fragment taken from a catalog entry and makes all its links absolute.
func Content(fragment string, baseURL *url.URL) (string, error) {
	selection, err := body(fragment)
	if err != nil {
		return "", err
	}

	selection.Find("script, style").Remove()

	for selector, attr := range map[string]string{"a": "href", "img": "src"} {
		if err := ForEach(selection.Find(selector), func(element *goquery.Selection) error {
			if value, ok := element.Attr(attr); ok && value != "" {
				resolved, err := url.Resolve(baseURL, value)
				if err != nil {
					return err
				}
				element.SetAttr(attr, resolved.String())
			}
			return nil
		}); err != nil {
			return "", err
		}
	}

	rendered, err := selection.Html()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(rendered), nil
}

// PlainText returns normalized text of an HTML fragment.
func PlainText(fragment string) (string, error) {
	selection, err := body(fragment)
	if err != nil {
		return "", err
	}

	selection.Find("script, style").Remove()
	selection.Find("br, p, div, li").AppendNodes(&html.Node{Type: html.TextNode, Data: " "})

	return Text(selection), nil
}

func body(fragment string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc.Find("body"), nil
}
