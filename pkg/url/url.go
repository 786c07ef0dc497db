package url

import (
	"fmt"
	"net/url"
	"strings"
)

type URL = url.URL

func MustParse(value string) *url.URL {
	url, err := url.Parse(value)
	if err != nil {
		panic(fmt.Sprintf("Invalid URL: %s", value))
	}
	return url
}

// ParseAbsolute parses a catalog URL which must carry a scheme and a host.
func ParseAbsolute(value string) (*url.URL, error) {
	url, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %q", value)
	} else if !url.IsAbs() || url.Host == "" {
		return nil, fmt.Errorf("the URL is not absolute: %q", value)
	}
	return url, nil
}

// Resolve returns link resolved against the document it was found in.
func Resolve(base *url.URL, link string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return nil, fmt.Errorf("got an invalid link: %q", link)
	}
	return base.ResolveReference(ref), nil
}
