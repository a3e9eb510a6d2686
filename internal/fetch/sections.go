package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSectionLimit is the number of HTML sections kept for a simple context.
const DefaultSectionLimit = 10

// sectionSelector matches the elements treated as self-contained text sections.
const sectionSelector = "h1, h2, h3, h4, h5, h6, p, li, td, dd, dt, blockquote"

// ExtractSections returns the text of the first limit non-empty HTML sections
// in document order. limit <= 0 returns every section.
func ExtractSections(html string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	sections := make([]string, 0)
	doc.Find(sectionSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Nested matches (a <p> inside an <li>) would repeat text.
		if s.ParentsFiltered(sectionSelector).Length() > 0 {
			return true
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return true
		}
		sections = append(sections, text)
		return limit <= 0 || len(sections) < limit
	})

	return sections, nil
}
