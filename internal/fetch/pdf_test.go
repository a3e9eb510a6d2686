package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        bool
	}{
		{"content type", "application/pdf", "https://calpoly.edu/catalog", true},
		{"content type with params", "Application/PDF; charset=binary", "https://calpoly.edu/x", true},
		{"extension", "", "https://calpoly.edu/docs/Schedule.PDF", true},
		{"extension with query", "application/octet-stream", "https://calpoly.edu/a.pdf?v=2", true},
		{"html", "text/html", "https://calpoly.edu/index.html", false},
		{"pdf in query only", "text/html", "https://calpoly.edu/view?file=a.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPDF(tt.contentType, tt.url))
		})
	}
}

func TestPDFText_InvalidDocument(t *testing.T) {
	_, err := PDFText([]byte("<html>not a pdf</html>"))
	assert.Error(t, err)
}
