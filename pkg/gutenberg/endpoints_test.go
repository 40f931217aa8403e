package gutenberg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookURL(t *testing.T) {
	tests := []struct {
		template string
		id       int
		expected string
	}{
		{DefaultURLTemplate, 1, "https://www.gutenberg.org/ebooks/1.epub3.images"},
		{DefaultURLTemplate, 10000, "https://www.gutenberg.org/ebooks/10000.epub3.images"},
		{"http://mirror.local/{id}/{id}.epub", 42, "http://mirror.local/42/42.epub"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, BookURL(tt.template, tt.id))
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{"default", DefaultURLTemplate, false},
		{"plain http mirror", "http://127.0.0.1:8080/books/{id}", false},
		{"missing placeholder", "https://www.gutenberg.org/ebooks/1.epub", true},
		{"relative", "/ebooks/{id}.epub", true},
		{"ftp", "ftp://mirror/{id}.epub", true},
		{"no host", "https:///{id}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.template)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchesContentType(t *testing.T) {
	tests := []struct {
		header   string
		expected string
		match    bool
	}{
		{"application/epub+zip", EpubContentType, true},
		{"application/epub+zip; charset=binary", EpubContentType, true},
		{"APPLICATION/EPUB+ZIP", EpubContentType, true},
		{"text/html; charset=utf-8", EpubContentType, false},
		{"", EpubContentType, false},
		{"anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.match, MatchesContentType(tt.header, tt.expected))
		})
	}
}
