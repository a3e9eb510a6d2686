package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directoryHTML = `
<html>
	<head><title>CSC Faculty</title></head>
	<body>
		<nav><li>Home</li></nav>
		<h1>Computer Science Faculty</h1>
		<p>The department has 40 faculty members.</p>
		<ul>
			<li><p>Foaad Khosmood</p></li>
			<li>Franz Kurfess</li>
		</ul>
		<table><tr><td>Office</td><td>14-210</td></tr></table>
		<p>   </p>
	</body>
</html>`

func TestExtractSections(t *testing.T) {
	sections, err := ExtractSections(directoryHTML, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Computer Science Faculty",
		"The department has 40 faculty members.",
		"Foaad Khosmood",
		"Franz Kurfess",
		"Office",
		"14-210",
	}, sections)
}

func TestExtractSections_Limit(t *testing.T) {
	sections, err := ExtractSections(directoryHTML, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Computer Science Faculty",
		"The department has 40 faculty members.",
	}, sections)
}

func TestExtractSections_NoSections(t *testing.T) {
	sections, err := ExtractSections("<html><body><div>plain</div></body></html>", DefaultSectionLimit)
	require.NoError(t, err)
	assert.Empty(t, sections)
}
