package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

const googleResultPage = `
<html>
	<body>
		<a href="/search?q=foaad&start=10">Next</a>
		<a href="#top">Top</a>
		<div class="g">
			<a href="/url?q=https://csc.calpoly.edu/faculty/foaad/&amp;sa=U&amp;ved=abc">Foaad Khosmood</a>
		</div>
		<div class="g">
			<a href="https://www.calpoly.edu/directory#results">Directory</a>
		</div>
		<div class="g">
			<a href="/url?q=https://csc.calpoly.edu/faculty/foaad/&amp;sa=U&amp;ved=def">Duplicate</a>
		</div>
		<a href="https://maps.google.com/maps?q=calpoly">Maps</a>
		<a href="https://accounts.google.com/ServiceLogin">Sign in</a>
		<a href="/url?q=mailto:foaad@calpoly.edu">Mail</a>
		<a href="/url?sa=U">Empty redirect</a>
		<a href="javascript:void(0)">Menu</a>
	</body>
</html>`

func TestExtractResultLinks(t *testing.T) {
	links, err := ExtractResultLinks(googleResultPage, "https://www.google.com/search?q=foaad")
	require.NoError(t, err)
	assert.Equal(t, []types.URL{
		"https://csc.calpoly.edu/faculty/foaad/",
		"https://www.calpoly.edu/directory",
	}, links)
}

func TestExtractResultLinks_InvalidPageURL(t *testing.T) {
	_, err := ExtractResultLinks("<html></html>", "not a url")
	require.Error(t, err)

	var linkErr *LinkExtractionError
	assert.ErrorAs(t, err, &linkErr)
}

func TestExtractResultLinks_NoLinks(t *testing.T) {
	links, err := ExtractResultLinks("<html><body>No results</body></html>", "https://www.google.com/search")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestIsGoogleHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"google.com", true},
		{"www.google.com", true},
		{"maps.google.com", true},
		{"www.google.co.uk", true},
		{"lh3.googleusercontent.com", true},
		{"www.gstatic.com", true},
		{"www.calpoly.edu", false},
		{"googlecalpoly.edu", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isGoogleHost(tt.host))
		})
	}
}
