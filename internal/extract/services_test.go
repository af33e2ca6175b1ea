package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/config"
)

func servicesTaxonomy() config.Taxonomy {
	return config.Taxonomy{
		"Pressure Washing": {"pressure washing", "power washing", "pressure cleaning"},
		"Window Cleaning":  {"window cleaning", "window washing"},
		"Gutter Cleaning":  {"gutter cleaning", "gutter clearing"},
	}
}

func TestServicesTaxonomyMapping(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<section id="services"><h2>Our Services</h2>
	<ul>
		<li>Pressure Washing</li>
		<li>Window Cleaning</li>
		<li>Holiday Lighting</li>
	</ul>
	</section>
	</body></html>`)

	ext := NewServicesExtractor(config.ExtractionConfig{ServicesMax: 8}, servicesTaxonomy())
	buckets, err := ext.Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldServices], 1)
	c := buckets[FieldServices][0]
	services := c.Value.([]string)
	assert.Contains(t, services, "Pressure Washing")
	assert.Contains(t, services, "Window Cleaning")
	assert.InDelta(t, 0.85, c.SourceWeight, 1e-9)
	assert.Contains(t, c.Provenance[0].Path, "taxonomy")
}

func TestServicesRawFallback(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<section class="services-grid"><h2>What We Do</h2>
	<ul><li>Koi Pond Maintenance</li><li>Aquascape Design</li></ul>
	</section>
	</body></html>`)

	ext := NewServicesExtractor(config.ExtractionConfig{ServicesMax: 8}, servicesTaxonomy())
	buckets, err := ext.Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldServices], 1)
	c := buckets[FieldServices][0]
	assert.InDelta(t, 0.6, c.SourceWeight, 1e-9)
	assert.ElementsMatch(t, []string{"Koi Pond Maintenance", "Aquascape Design"}, c.Value.([]string))
}

func TestServicesMaxCount(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body>
	<section id="services"><h2>Services</h2><ul>
	<li>Pressure Washing</li><li>Window Cleaning</li><li>Gutter Cleaning</li>
	</ul></section></body></html>`)

	ext := NewServicesExtractor(config.ExtractionConfig{ServicesMax: 2}, servicesTaxonomy())
	buckets, err := ext.Extract(doc)
	require.NoError(t, err)

	require.Len(t, buckets[FieldServices], 1)
	assert.Len(t, buckets[FieldServices][0].Value.([]string), 2)
}

func TestCleanRawServices(t *testing.T) {
	t.Parallel()

	raw := []string{
		"Pressure Washing",
		"We are the best crew in town and you will love us",
		"Contact Us",
		"Learn More",
		"Services",
		"http://acme.example/services",
		"Deck Restoration",
		"Pressure Washing", // duplicate
		"!!!",
	}
	cleaned := cleanRawServices(raw)
	assert.ElementsMatch(t, []string{"Pressure Washing", "Deck Restoration"}, cleaned)
}

func TestServicesNoCandidatesOnEmptyPage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><p>Nothing here.</p></body></html>`)
	ext := NewServicesExtractor(config.ExtractionConfig{}, servicesTaxonomy())
	buckets, err := ext.Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, buckets[FieldServices])
}
