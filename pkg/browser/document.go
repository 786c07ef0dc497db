package browser

import (
	"fmt"
	"mime"
	"slices"
	"strings"
	"unicode"

	"github.com/chromedp/cdproto/network"

	"github.com/KonishchevDmitry/opds/pkg/opds1"
	"github.com/KonishchevDmitry/opds/pkg/opds2"
)

// Chrome renders XML documents without a stylesheet as a tree prefixed with this notice
const xmlViewerNotice = "This XML file does not appear to have any style information associated with it. " +
	"The document tree is shown below."

func headerValue(headers network.Headers, name string) (string, bool) {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			if value, ok := value.(string); ok && value != "" {
				return value, true
			}
		}
	}
	return "", false
}

// documentBody restores the document from what the browser shows: page HTML for web pages, the text for catalogs.
func documentBody(contentType string, text string, html string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("the server returned an invalid Content-Type: %q", contentType)
	}

	switch {
	case mediaType == "text/html":
		return html, nil

	case slices.Contains(opds1.PossibleContentTypes, mediaType):
		if trimmed := strings.TrimLeftFunc(text, unicode.IsSpace); strings.HasPrefix(trimmed, xmlViewerNotice) {
			return strings.TrimLeftFunc(trimmed[len(xmlViewerNotice):], unicode.IsSpace), nil
		}
		return text, nil

	case slices.Contains(opds2.PossibleContentTypes, mediaType):
		return strings.TrimSpace(text), nil

	default:
		return text, nil
	}
}
