package gutenberg

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gutenfetch/pkg/config"
)

const (
	// BaseURL is the base URL for Project Gutenberg
	BaseURL = "https://www.gutenberg.org"

	// EpubEndpoint is the path pattern of the EPUB3 archive with images
	EpubEndpoint = "/ebooks/" + config.IDPlaceholder + ".epub3.images"

	// DefaultURLTemplate is the full default book URL template
	DefaultURLTemplate = BaseURL + EpubEndpoint

	// EpubContentType is the media type of an EPUB archive
	EpubContentType = "application/epub+zip"
)

// BookURL substitutes id into template
func BookURL(template string, id int) string {
	return strings.ReplaceAll(template, config.IDPlaceholder, strconv.Itoa(id))
}

// ValidateTemplate checks that template yields absolute http(s) URLs
func ValidateTemplate(template string) error {
	if !strings.Contains(template, config.IDPlaceholder) {
		return fmt.Errorf("url template must contain %s", config.IDPlaceholder)
	}

	u, err := url.Parse(BookURL(template, 1))
	if err != nil {
		return fmt.Errorf("invalid url template: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url template must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url template has no host")
	}
	return nil
}

// MatchesContentType reports whether a Content-Type header declares the
// expected media type. Matching is a case-insensitive substring test, so
// parameters such as charset do not matter.
func MatchesContentType(header, expected string) bool {
	if expected == "" {
		return true
	}
	return strings.Contains(strings.ToLower(header), strings.ToLower(expected))
}
